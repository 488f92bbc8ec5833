package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aesdsocket/aesdsocketd/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the aesdsocketd version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Version())
	},
}
