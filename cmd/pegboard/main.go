package main

import "github.com/pegboard-io/pegboard/internal/cli"

func main() {
	cli.Run()
}
