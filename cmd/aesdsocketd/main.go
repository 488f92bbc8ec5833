// Command aesdsocketd runs the bounded circular-log TCP server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aesdsocket/aesdsocketd/internal/version"
)

var rootCmd = &cobra.Command{
	Use:     "aesdsocketd",
	Short:   "Bounded circular-log line server",
	Version: version.Version(),
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
}
