// Command vkcrawl crawls the VK social graph breadth-first from one user and
// writes profiles and relationships to a graph store.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "vkcrawl:", err)
		os.Exit(1)
	}
}
