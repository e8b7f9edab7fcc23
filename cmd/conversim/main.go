package main

import (
	"os"

	"github.com/conversim/conversim/cmd/cli"
)

func main() {
	cli.Run(os.Args[1:])
}
