package main

import (
	"context"
	"os"

	"github.com/hupe1980/appdeck/internal/cli"
)

var version = "dev"

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
