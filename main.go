package main

import (
	"os"

	"github.com/sadopc/clockwise/internal/cli"
)

var version = "dev"

func main() {
	os.Exit(cli.Execute(version))
}
