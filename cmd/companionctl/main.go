package main

import "design-companion-be/internal/cli"

func main() {
	cli.Execute()
}
