package main

import (
	"os"

	"github.com/conneroisu/bleak/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
