package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/rvbmc/bmc/rvbtor/fuzz"
	"github.com/rvbmc/bmc/rvbtor/riscv"
)

func Fuzz(ctx *cli.Context) error {
	l := Logger(os.Stderr, log.LevelInfo)
	seed := time.Now().UnixNano()
	if ctx.IsSet(SeedFlag.Name) {
		seed = ctx.Int64(SeedFlag.Name)
	}
	s, err := fuzz.RandomState(seed, ctx.Uint(AddrBitsFlag.Name))
	if err != nil {
		return fmt.Errorf("failed to generate state: %w", err)
	}
	insn := s.Instr()
	l.Info("Generated state", "seed", seed, "pc", HexU64(s.PC()), "insn", HexU32(insn), "decoded", riscv.Decode(insn))
	if err := s.WriteFile(ctx.Path(OutputFlag.Name), OutFilePerm); err != nil {
		return fmt.Errorf("failed to write state output: %w", err)
	}
	return nil
}

var FuzzCommand = &cli.Command{
	Name:        "fuzz",
	Usage:       "Generate a random JSON machine state",
	Description: "Generate a random machine state with one base-ISA instruction at the program counter. The same seed always gives the same state.",
	Action:      Fuzz,
	Flags: []cli.Flag{
		SeedFlag,
		AddrBitsFlag,
		OutputFlag,
	},
}
