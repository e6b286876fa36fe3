package main

import (
	"os"

	"github.com/quantfx/smctrader/cmd/smctrader/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
