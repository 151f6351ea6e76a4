package main

import "github.com/adeilh/quill/internal/cli"

func main() {
	cli.Execute()
}
