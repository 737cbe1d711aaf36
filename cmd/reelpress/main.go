package main

import "reelpress/internal/cli"

func main() {
	cli.Main()
}
