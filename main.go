package main

import "github.com/forPelevin/clipscan/internal/cli"

func main() {
	cli.Main()
}
