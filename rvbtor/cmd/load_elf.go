package cmd

import (
	"debug/elf"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/rvbmc/bmc/rvbtor/state"
)

func LoadELF(ctx *cli.Context) error {
	l := Logger(os.Stderr, log.LevelInfo)
	elfPath := ctx.Path(InputFlag.Name)
	elfProgram, err := elf.Open(elfPath)
	if err != nil {
		return fmt.Errorf("failed to open ELF file %q: %w", elfPath, err)
	}
	defer elfProgram.Close()
	if elfProgram.Machine != elf.EM_RISCV {
		return fmt.Errorf("ELF is not RISC-V, but got %q", elfProgram.Machine.String())
	}
	var limit uint64
	if bits := ctx.Uint(AddrBitsFlag.Name); bits < 64 {
		limit = uint64(1) << bits
	}
	s, err := state.FromELF(elfProgram, limit)
	if err != nil {
		return fmt.Errorf("failed to load ELF data into machine state: %w", err)
	}
	l.Info("Loaded ELF", "entry", HexU64(s.PC()), "cells", len(s.Memory))
	return s.WriteFile(ctx.Path(OutputFlag.Name), OutFilePerm)
}

var LoadELFCommand = &cli.Command{
	Name:        "load-elf",
	Usage:       "Load ELF file into a JSON machine state",
	Description: "Load the segments of a RISC-V ELF file below 2^addr-bits into a JSON machine state, with the program counter at the entry point.",
	Action:      LoadELF,
	Flags: []cli.Flag{
		InputFlag,
		OutputFlag,
		AddrBitsFlag,
	},
}
