package main

import (
	"os"

	"github.com/dealflow/dealflow/cmd/dealflowctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
