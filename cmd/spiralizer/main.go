package main

import (
	"fmt"
	"os"

	"github.com/Simone-Scheuer/spiralizer-v2/internal/app"
)

func main() {
	if err := app.RunDesktop(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
