// Command doney is the CLI entrypoint.
package main

import (
	"os"

	"github.com/DataDaddy212/doney-mirror/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
