package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/quatton/qsite/apps/qsite/cmd"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "qsite crashed: %v\n", r)
			if os.Getenv("QSITE_DEBUG") != "" {
				debug.PrintStack()
			}
			os.Exit(2)
		}
	}()

	cmd.Execute()
}
