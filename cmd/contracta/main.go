// Command contracta is a contract question-answering CLI: load a
// contract once, then ask questions, generate summaries or extract key
// fields from the terminal, a chat session or an MCP server.
package main

import (
	"os"

	"github.com/custodia-labs/contracta-cli/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
