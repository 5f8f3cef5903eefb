package main

import "token-change-alerts/internal/cli"

func main() {
	cli.Execute()
}
