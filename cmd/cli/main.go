package main

import "github.com/tree-builder/cmd/cli/cmd"

func main() {
	cmd.Execute()
}
