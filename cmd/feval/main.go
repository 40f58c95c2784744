package main

import (
	"os"

	"github.com/wonny/feval/cmd/feval/commands"
)

// main is the entry point for the feval CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/feval [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
