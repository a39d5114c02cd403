package main

import (
	"os"

	"github.com/studyup/studyup/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
