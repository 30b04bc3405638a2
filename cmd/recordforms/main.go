// Command recordforms serves, renders and fills dynamic record forms
// against the resource API.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
