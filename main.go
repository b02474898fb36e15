package main

import (
	"github.com/capwire/capwire/cmd"
)

func main() {
	cmd.Execute()
}
