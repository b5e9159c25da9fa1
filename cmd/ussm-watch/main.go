// Command ussm-watch signs in to a ussm server and keeps a live dashboard
// on the terminal.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
