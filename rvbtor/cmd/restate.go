package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/rvbmc/bmc/rvbtor/synth"
	"github.com/rvbmc/bmc/rvbtor/witness"
)

func badName(i int) string {
	if i >= 0 && i < len(synth.BadNames) {
		return synth.BadNames[i]
	}
	return fmt.Sprintf("b%d", i)
}

func Restate(ctx *cli.Context) error {
	l := Logger(os.Stderr, log.LevelInfo)
	input := ctx.Path(InputFlag.Name)
	var r io.Reader = os.Stdin
	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return fmt.Errorf("failed to open witness %q: %w", input, err)
		}
		defer f.Close()
		r = f
	}
	w, err := witness.Parse(r)
	if err != nil {
		return fmt.Errorf("invalid witness (%v): %w", input, err)
	}
	for _, b := range w.Bad {
		l.Info("Violated property", "index", b, "name", badName(b))
	}
	l.Info("Restated machine", "step", w.Step, "pc", HexU64(w.State.PC()), "cells", len(w.State.Memory))
	if err := w.State.WriteFile(ctx.Path(OutputFlag.Name), OutFilePerm); err != nil {
		return fmt.Errorf("failed to write state output: %w", err)
	}
	return nil
}

var RestateCommand = &cli.Command{
	Name:        "restate",
	Usage:       "Convert a btormc witness into a JSON machine state",
	Description: "Convert the last frame of a btormc --trace-gen-full witness for a synthesized model into a JSON machine state.",
	Action:      Restate,
	Flags: []cli.Flag{
		InputFlag,
		OutputFlag,
	},
}
