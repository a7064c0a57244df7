package main

import "github.com/cantara/playbookgen/cmd"

func main() {
	cmd.Execute()
}
