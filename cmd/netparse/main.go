// Package main is a command-line tool that parses device output
// with rule documents.
//
// See 'netparse help' for the commands.
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
