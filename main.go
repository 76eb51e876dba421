package main

import (
	"os"

	"github.com/scanio-labs/retriage/cmd"
)

func main() {
	code := cmd.Execute()
	os.Exit(code)
}
