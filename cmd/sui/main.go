package main

import "github.com/jgreely/genaistuff/internal/cli"

func main() {
	cli.Execute()
}
