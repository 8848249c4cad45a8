package main

import "github.com/omnichat/omni/internal/cli"

func main() {
	cli.Execute()
}
