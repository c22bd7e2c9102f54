package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
	if logger != nil {
		_ = logger.Sync()
	}
}
