// Command ridged runs a ridge database server instance.
package main

import "github.com/ridgedb/ridge/internal/cli"

var version = "dev"

func main() {
	cli.Execute(version)
}
