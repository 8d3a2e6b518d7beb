// Command hubd runs the serial hub on a workstation, with USB serial
// adapters standing in for the board's ports.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
