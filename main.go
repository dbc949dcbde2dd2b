package main

import (
	"github.com/sw33tLie/liquifeed/cmd"
)

func main() {
	cmd.Execute()
}
