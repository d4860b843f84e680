package main

import (
	"fmt"
	"os"

	"github.com/segyhp/installment-engine/cmd/ledgerctl/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
