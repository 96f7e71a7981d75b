package main

import "github.com/signal-slot/mcp-screenshot/cmd/mcp-screenshot/commands"

func main() {
	commands.Execute()
}
