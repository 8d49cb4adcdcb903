// Command collsim drives every collective operation over an in-process
// simulated network, for demonstrating and sanity-checking the engine
// without a real transport.
package main

import "github.com/opencube-horizon/collective/cmd/collsim/cmd"

func main() {
	cmd.Execute()
}
