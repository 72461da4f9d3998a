package main

import "confclient/cmd/confclient/commands"

func main() {
	commands.Execute()
}
