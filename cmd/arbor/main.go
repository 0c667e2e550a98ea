// Command arbor scripts and inspects a typed content repository.
package main

import (
	"os"

	"github.com/mesh-intelligence/arbor/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
