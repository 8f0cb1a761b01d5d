package main

import (
	"log/slog"
	"os"

	"github.com/tester22000/simpleshare/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		slog.Error("simpleshare stopped", "err", err)
		os.Exit(1)
	}
}
