// Command tsgraph prints the computation graph stored in TorchScript
// archives.
package main

import (
	"context"

	"github.com/scott-cotton/cli"
)

func main() {
	cli.MainContext(context.Background(), Root())
}
