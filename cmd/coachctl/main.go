package main

import (
	"os"

	"github.com/avelara/coachctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
