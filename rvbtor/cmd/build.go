package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/profile"
	"github.com/urfave/cli/v2"

	"github.com/rvbmc/bmc/rvbtor/riscv"
	"github.com/rvbmc/bmc/rvbtor/state"
	"github.com/rvbmc/bmc/rvbtor/synth"
)

func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, OutFilePerm); err != nil {
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	return nil
}

func configFromFlags(ctx *cli.Context) synth.Config {
	cfg := synth.DefaultConfig()
	cfg.AddrBits = ctx.Uint(AddrBitsFlag.Name)
	cfg.Bound = ctx.Uint64(BoundFlag.Name)
	if ctx.Bool(RejectOutOfRangeFlag.Name) {
		cfg.OutOfRange = synth.RejectAddressSpaceTooSmall
	}
	cfg.CheckExclusive = ctx.Bool(CheckExclusiveFlag.Name)
	return cfg
}

func Build(ctx *cli.Context) error {
	if ctx.Bool(PProfCPUFlag.Name) {
		defer profile.Start(profile.NoShutdownHook, profile.ProfilePath("."), profile.CPUProfile).Stop()
	}
	l := Logger(os.Stderr, log.LevelInfo)

	input := ctx.Path(InputFlag.Name)
	s, err := state.LoadFromFile(input)
	if err != nil {
		return fmt.Errorf("invalid input state (%v): %w", input, err)
	}
	cfg := configFromFlags(ctx)
	insn := s.Instr()
	l.Info("Synthesizing model", "pc", HexU64(s.PC()), "insn", HexU32(insn), "op", riscv.Decode(insn).Op,
		"addr_bits", cfg.AddrBits, "bound", cfg.Bound, "out_of_range", cfg.OutOfRange)

	res, err := synth.Synthesize(s, cfg)
	if err != nil {
		return fmt.Errorf("failed to synthesize model: %w", err)
	}
	for _, a := range res.Ignored {
		l.Debug("Populated cell outside the address space", "addr", HexU64(a))
	}
	if len(res.Ignored) > 0 {
		l.Warn("Left populated cells out of the model", "count", len(res.Ignored),
			"first", HexU64(res.Ignored[0]), "last", HexU64(res.Ignored[len(res.Ignored)-1]))
	}

	var buf bytes.Buffer
	if _, err := res.Model.WriteTo(&buf); err != nil {
		return fmt.Errorf("failed to render model: %w", err)
	}
	output := ctx.Path(OutputFlag.Name)
	if err := writeOutput(output, buf.Bytes()); err != nil {
		return err
	}
	l.Info("Wrote model", "lines", res.Model.Len(), "bytes", buf.Len(), "digest", crypto.Keccak256Hash(buf.Bytes()), "output", output)
	return nil
}

var BuildCommand = &cli.Command{
	Name:        "build",
	Usage:       "Synthesize a BTOR2 model from a JSON machine state",
	Description: "Synthesize a BTOR2 transition system whose every step executes one RV64I instruction, starting from the given machine state.",
	Action:      Build,
	Flags: []cli.Flag{
		InputFlag,
		OutputFlag,
		AddrBitsFlag,
		BoundFlag,
		RejectOutOfRangeFlag,
		CheckExclusiveFlag,
		PProfCPUFlag,
	},
}
