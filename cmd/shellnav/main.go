package main

import "github.com/justyntemme/shellnav/internal/cli"

func main() {
	cli.Execute()
}
