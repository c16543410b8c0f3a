// Command cannaspot is the CannaSpot operations toolkit.
package main

import "github.com/davebowl/Canna-spot-mobile/internal/cli"

func main() {
	cli.Execute()
}
