package main

import "github.com/jeroenvanmaanen/dendrite/cli"

func main() {
	cli.Main()
}
