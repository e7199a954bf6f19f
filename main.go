/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/rendermanager/engine"
	"github.com/spaghettifunk/rendermanager/engine/core"
	"github.com/spaghettifunk/rendermanager/testbed"
	"github.com/spf13/cobra"
)

func main() {
	var (
		configPath string
		headless   bool
		maxFrames  uint64
	)

	cmd := &cobra.Command{
		Use:          "testbed",
		Short:        "Runs the render manager testbed",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(testbed.NewTestGame(configPath, headless, maxFrames))
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML config file, reloaded on change")
	cmd.Flags().BoolVar(&headless, "headless", false, "run without a window")
	cmd.Flags().Uint64Var(&maxFrames, "frames", 0, "stop after this many frames (0 runs until quit)")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(tb *testbed.TestGame) error {
	e, err := engine.New(tb.Game)
	if err != nil {
		return err
	}

	if err := e.Initialize(); err != nil {
		return err
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer signal.Stop(sigCh)

	// stop the frame loop, shutdown happens once Run returns
	go func() {
		<-sigCh
		core.LogInfo("signal received, stopping")
		e.Quit()
	}()

	runErr := e.Run()
	if err := e.Shutdown(); err != nil {
		return err
	}
	return runErr
}
