package main

import (
	"fmt"

	"github.com/scholium/scholium/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the library directory and a default config file",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	dataDir := dataDirFlag
	if dataDir == "" {
		dataDir = config.DefaultDataDir()
	}

	if err := config.EnsureDataDir(dataDir); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if err := config.WriteDefault(dataDir); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	if humanOutput {
		fmt.Printf("Initialized library in %s\n", dataDir)
	} else {
		outputJSON(StatusResponse{Status: "initialized", Path: dataDir})
	}
	return nil
}
