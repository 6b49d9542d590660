package main

import "unfurl/internal/cli"

func main() {
	cli.ExitOnError(cli.Execute())
}
