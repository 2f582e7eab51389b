package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/rvbmc/bmc/rvbtor/cmd"
)

func main() {
	app := cli.NewApp()
	app.Name = "rvbtor"
	app.Usage = "RV64I to BTOR2 model synthesis"
	app.Description = "Synthesize BTOR2 transition systems from RISC-V machine states for bounded model checking"
	app.Commands = []*cli.Command{
		cmd.BuildCommand,
		cmd.FuzzCommand,
		cmd.RestateCommand,
		cmd.LoadELFCommand,
	}
	ctx, cancel := context.WithCancel(context.Background())

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for {
			<-c
			cancel()
			fmt.Println("\r\nExiting...")
		}
	}()

	err := app.RunContext(ctx, os.Args)
	if err != nil {
		if errors.Is(err, ctx.Err()) {
			_, _ = fmt.Fprintf(os.Stderr, "command interrupted")
			os.Exit(130)
		} else {
			_, _ = fmt.Fprintf(os.Stderr, "error: %v", err)
			os.Exit(1)
		}
	}
}
