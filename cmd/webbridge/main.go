// Package main provides the entry point for the webbridge CLI.
package main

import (
	"os"

	"github.com/liteclaw/webbridge/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
