// Package main is the entry point for the stratum packet decoder CLI.
package main

import (
	"fmt"
	"os"

	"firestige.xyz/stratum/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
