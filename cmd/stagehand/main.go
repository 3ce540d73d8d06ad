// Command stagehand plans and runs staged component activations.
//
// Usage:
//
//	stagehand plan -c config.yaml
//	stagehand run -c config.yaml --family service --label env=prod
//	stagehand serve -c config.yaml
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
