package main

import "github.com/boomchecker/moderation-gateway/internal/cli"

func main() {
	cli.Execute()
}
