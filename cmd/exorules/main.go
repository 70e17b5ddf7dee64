// Package main provides the exorules binary entry point.
// Exorules compiles habitability rule catalogs into builder-chain source.
package main

import (
	"fmt"
	"os"
	"runtime"

	// Register catalog parsers via init()
	_ "github.com/c360studio/exorules/catalog/python"
	_ "github.com/c360studio/exorules/catalog/yamlsrc"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "exorules"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
