// Command spiprovider serves an accessible tree described in YAML and
// prints the stringified IOR of its root.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
