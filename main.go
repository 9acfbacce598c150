package main

import "reelbook/cmd"

func main() {
	cmd.Execute()
}
