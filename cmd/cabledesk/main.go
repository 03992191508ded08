package main

import (
	"os"
)

func main() {
	if err := newRootCommand(runWithApp).Execute(); err != nil {
		os.Exit(1)
	}
}
