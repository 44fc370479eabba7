package main

import (
	"os"

	"github.com/austindbirch/supportflow/cmd/ticketsim/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
