package main

import "github.com/tanq16/revup/cmd"

func main() {
	cmd.Execute()
}
