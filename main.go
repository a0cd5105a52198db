package main

import "github.com/AvaProtocol/ercx-bot/cmd"

func main() {
	cmd.Execute()
}
