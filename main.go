package main

import "github.com/pixdl/pixdl/cmd"

func main() {
	cmd.Execute()
}
