package main

import "github.com/goliatone/go-templify/internal/commands"

func main() {
	commands.Execute()
}
