package cmd

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/rvbmc/bmc/rvbtor/riscv"
)

const EnvVarPrefix = "RVBTOR"

func prefixEnvVars(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var OutFilePerm = os.FileMode(0o644)

var (
	InputFlag = &cli.PathFlag{
		Name:      "input",
		Usage:     "path of the input file, or - for stdin where supported",
		TakesFile: true,
		Required:  true,
		EnvVars:   prefixEnvVars("INPUT"),
	}
	OutputFlag = &cli.PathFlag{
		Name:      "output",
		Usage:     "path of the output file, - for stdout",
		TakesFile: true,
		Value:     "-",
		EnvVars:   prefixEnvVars("OUTPUT"),
	}
	AddrBitsFlag = &cli.UintFlag{
		Name:    "addr-bits",
		Usage:   "width of the model's address space in bits; memory holds 2^addr-bits cells",
		Value:   riscv.DefaultAddrBits,
		EnvVars: prefixEnvVars("ADDR_BITS"),
	}
	BoundFlag = &cli.Uint64Flag{
		Name:    "bound",
		Usage:   "number of instructions to explore before the counter-exhausted property fires",
		Value:   riscv.DefaultBound,
		EnvVars: prefixEnvVars("BOUND"),
	}
	RejectOutOfRangeFlag = &cli.BoolFlag{
		Name:    "reject-out-of-range",
		Usage:   "fail instead of leaving populated cells outside the address space out of the model",
		EnvVars: prefixEnvVars("REJECT_OUT_OF_RANGE"),
	}
	CheckExclusiveFlag = &cli.BoolFlag{
		Name:    "check-exclusive",
		Usage:   "add a bad property that fires when two instruction predicates hold at once",
		EnvVars: prefixEnvVars("CHECK_EXCLUSIVE"),
	}
	SeedFlag = &cli.Int64Flag{
		Name:    "seed",
		Usage:   "seed of the random snapshot; defaults to the current time",
		EnvVars: prefixEnvVars("SEED"),
	}
	PProfCPUFlag = &cli.BoolFlag{
		Name:    "pprof.cpu",
		Usage:   "enable pprof cpu profiling",
		EnvVars: prefixEnvVars("PPROF_CPU"),
	}
)
