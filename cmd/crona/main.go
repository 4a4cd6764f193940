package main

import (
	"os"

	"github.com/ericvale0128/cronaswap-interfacev3/internal/app"
)

func main() {
	runner := app.NewRunner()
	os.Exit(runner.Run(os.Args[1:]))
}
