// The main package for the vigia executable.
package main

import (
	"github.com/vigiadata/vigia/cmd"
)

func main() {
	cmd.Execute()
}
