package sim

import "github.com/holiman/uint256"

// Bitvector helpers. Every value is kept zero-extended to 256 bits and
// masked to the width of its sort after each operation.

type U256 = uint256.Int

func toU256(v uint64) (out U256) {
	out.SetUint64(v)
	return
}

func widthMask(w uint) (out U256) {
	one := toU256(1)
	out.Lsh(&one, w)
	out.Sub(&out, &one)
	return
}

func truncate(x U256, w uint) (out U256) {
	m := widthMask(w)
	out.And(&x, &m)
	return
}

func bit(x U256, i uint) bool {
	var t U256
	t.Rsh(&x, i)
	return t.Uint64()&1 == 1
}

// signExtend widens a w-bit value to the full 256 bits.
func signExtend(x U256, w uint) (out U256) {
	out = x
	if bit(x, w-1) {
		m := widthMask(w)
		m.Not(&m)
		out.Or(&out, &m)
	}
	return
}

func fromBool(b bool) (out U256) {
	if b {
		out.SetUint64(1)
	}
	return
}

func add(x, y U256, w uint) (out U256) {
	out.Add(&x, &y)
	return truncate(out, w)
}

func sub(x, y U256, w uint) (out U256) {
	out.Sub(&x, &y)
	return truncate(out, w)
}

func mul(x, y U256, w uint) (out U256) {
	out.Mul(&x, &y)
	return truncate(out, w)
}

func not(x U256, w uint) (out U256) {
	out.Not(&x)
	return truncate(out, w)
}

func neg(x U256, w uint) (out U256) {
	out.Neg(&x)
	return truncate(out, w)
}

func and(x, y U256) (out U256) {
	out.And(&x, &y)
	return
}

func or(x, y U256) (out U256) {
	out.Or(&x, &y)
	return
}

func xor(x, y U256) (out U256) {
	out.Xor(&x, &y)
	return
}

func shiftAmount(y U256, w uint) (uint, bool) {
	if !y.IsUint64() || y.Uint64() >= uint64(w) {
		return 0, false
	}
	return uint(y.Uint64()), true
}

func sll(x, y U256, w uint) (out U256) {
	n, ok := shiftAmount(y, w)
	if !ok {
		return
	}
	out.Lsh(&x, n)
	return truncate(out, w)
}

func srl(x, y U256, w uint) (out U256) {
	n, ok := shiftAmount(y, w)
	if !ok {
		return
	}
	out.Rsh(&x, n)
	return
}

func sra(x, y U256, w uint) (out U256) {
	n, ok := shiftAmount(y, w)
	if !ok {
		n = w - 1
	}
	sx := signExtend(x, w)
	out.SRsh(&sx, n)
	return truncate(out, w)
}

func ult(x, y U256) bool {
	return x.Lt(&y)
}

func slt(x, y U256, w uint) bool {
	sx, sy := signExtend(x, w), signExtend(y, w)
	return sx.Slt(&sy)
}

func eq(x, y U256) bool {
	return x.Eq(&y)
}

// concat places x above the w-bit value y.
func concat(x, y U256, w uint) (out U256) {
	out.Lsh(&x, w)
	out.Or(&out, &y)
	return
}

func slice(x U256, upper, lower uint) (out U256) {
	out.Rsh(&x, lower)
	return truncate(out, upper-lower+1)
}
