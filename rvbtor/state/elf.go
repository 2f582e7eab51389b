package state

import (
	"bytes"
	"debug/elf"
	"fmt"
	"io"
)

// FromELF builds a snapshot from the loadable segments of a RISC-V ELF.
// The program counter is the entry point and no register besides x0 is defined.
// Bytes at or above limit are skipped; a zero limit keeps everything.
func FromELF(f *elf.File, limit uint64) (*State, error) {
	out := New()
	out.SetPC(f.Entry)

	for i, prog := range f.Progs {
		if prog.Type == 0x70000003 {
			// RISC-V reuses the MIPS_ABIFLAGS program type for its .riscv.attributes segment, which is never loaded.
			continue
		}

		r := io.Reader(io.NewSectionReader(prog, 0, int64(prog.Filesz)))
		if prog.Filesz != prog.Memsz {
			if prog.Type == elf.PT_LOAD {
				if prog.Filesz < prog.Memsz {
					r = io.MultiReader(r, bytes.NewReader(make([]byte, prog.Memsz-prog.Filesz)))
				} else {
					return nil, fmt.Errorf("invalid PT_LOAD program segment %d, file size (%d) > mem size (%d)", i, prog.Filesz, prog.Memsz)
				}
			} else {
				return nil, fmt.Errorf("program segment %d has different file size (%d) than mem size (%d): filling for non PT_LOAD segments is not supported", i, prog.Filesz, prog.Memsz)
			}
		}

		dat, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read program segment %d: %w", i, err)
		}
		for j, v := range dat {
			addr := prog.Vaddr + uint64(j)
			if limit != 0 && addr >= limit {
				break
			}
			out.SetByte(addr, v)
		}
	}
	return out, nil
}
