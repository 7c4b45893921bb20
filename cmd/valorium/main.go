package main

import (
	"os"

	"github.com/SylverbladeX/ValoriumX-Simulator/cmd/valorium/commands"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/chain"
)

// Exit codes.
const (
	exitOK         = 0
	exitValidation = 1
	exitIntegrity  = 2
)

func main() {
	rootCmd := commands.RootCmd

	rootCmd.AddCommand(
		commands.NewKeygenCmd(),
		commands.NewRunCmd(),
		commands.NewVersionCmd())

	//Do not print usage when error occurs
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		if chain.IsIntegrity(err) {
			os.Exit(exitIntegrity)
		}
		os.Exit(exitValidation)
	}

	os.Exit(exitOK)
}
