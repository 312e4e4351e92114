package main

import "sologrid/internal/cli"

func main() {
	cli.Execute()
}
