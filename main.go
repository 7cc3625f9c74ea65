package main

import "github.com/stevemurr/content-builder/cli"

func main() {
	cli.Execute()
}
