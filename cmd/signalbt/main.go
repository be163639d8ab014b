package main

import (
	"os"

	"github.com/rustyeddy/signalbt/cmd/signalbt/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
