package main

import (
	"os"

	"github.com/weibosync/weibosync/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
