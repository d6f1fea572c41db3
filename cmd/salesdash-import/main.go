package main

import (
	"fmt"
	"os"

	"salesdash/internal/cli"
)

func main() {
	cli.LoadEnvFile()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "salesdash-import:", err)
		os.Exit(1)
	}
}
