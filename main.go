// Package main is the entry point for nlyzer, a live packet capture and dissection tool.
package main

import (
	"fmt"
	"os"

	"firestige.xyz/nlyzer/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
