package main

import "github.com/ppiankov/cmddoctor/internal/cli"

func main() {
	cli.Execute()
}
