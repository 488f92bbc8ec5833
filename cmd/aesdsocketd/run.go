package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aesdsocket/aesdsocketd/internal/config"
	"github.com/aesdsocket/aesdsocketd/internal/logging"
	"github.com/aesdsocket/aesdsocketd/internal/supervisor"
)

// daemonEnvVar marks a re-exec'd child as already detached, so it does
// not try to daemonize itself again.
const daemonEnvVar = "AESDSOCKETD_DAEMON_CHILD"

var runCmdArgs struct {
	ConfigPath string
	Daemonize  bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Bind the listen socket and serve connections until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	runCmd.Flags().StringVarP(&runCmdArgs.ConfigPath, "config", "c", "", "Path to the YAML configuration file (optional; defaults used if absent)")
	runCmd.Flags().BoolVarP(&runCmdArgs.Daemonize, "daemonize", "d", false, "Fork, detach from the controlling terminal, and run in the background")
}

func runServer() error {
	cfg, err := config.Load(runCmdArgs.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if runCmdArgs.Daemonize && os.Getenv(daemonEnvVar) == "" {
		return daemonize()
	}

	log, _, err := logging.Init(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer log.Sync()

	log.Infow("starting aesdsocketd",
		"listen_addr", cfg.ListenAddr,
		"backend", cfg.Backend,
		"ring_capacity", cfg.RingCapacity,
	)

	sup, err := supervisor.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize supervisor: %w", err)
	}

	if err := sup.Run(context.Background()); err != nil {
		return fmt.Errorf("supervisor exited with error: %w", err)
	}
	return nil
}

// daemonize re-execs the current process detached from the controlling
// terminal, with stdio redirected to /dev/null, and returns once the
// child has been launched -- the Go analogue of original_source's
// fork()-and-parent-exits-zero pattern (Go has no raw fork() that can
// safely continue running the same process image).
func daemonize() error {
	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("daemonize: opening %s: %w", os.DevNull, err)
	}
	defer devNull.Close()

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("daemonize: resolving executable path: %w", err)
	}

	cmd := exec.Command(exe, os.Args[1:]...)
	cmd.Env = append(os.Environ(), daemonEnvVar+"=1")
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("daemonize: starting detached child: %w", err)
	}
	return nil
}
