package main

import (
	"os"

	"github.com/lcf-civic/civicsum/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
