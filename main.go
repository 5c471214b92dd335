package main

import "github.com/framebus/framebus/cmd"

func main() {
	cmd.Execute()
}
