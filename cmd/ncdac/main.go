// Command ncdac works with the NC DAC offender public extracts.
package main

import (
	"os"

	"github.com/ncdatalab/ncdac/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
