package main

import (
	"fmt"
	"os"
	"runtime/debug"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "uibench: panic: %v\n\n%s\n", r, debug.Stack())
			os.Exit(2)
		}
	}()

	Execute()
}
