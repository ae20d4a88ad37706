package main

import "medingest/internal/cli"

func main() {
	cli.Execute()
}
