package main

import (
	"os"

	"waterhealth-cloud/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
