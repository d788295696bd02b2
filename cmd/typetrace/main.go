package main

import "github.com/typetrace/typetrace/internal/cli"

func main() {
	cli.Execute()
}
