package main

import "github.com/forPelevin/ytclip/internal/cli"

func main() {
	cli.Main()
}
