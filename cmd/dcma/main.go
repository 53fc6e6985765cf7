// Package main provides the entry point for the dcma CLI.
package main

import (
	"fmt"
	"os"

	"github.com/JaimeStill/dcma/internal/cli"

	_ "github.com/JaimeStill/dcma/internal/hocr/tesseract"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
