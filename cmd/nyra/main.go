package main

import (
	"fmt"
	"os"

	"github.com/nyra-ai/nyra/cmd/nyra/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		if !commands.IsReported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
