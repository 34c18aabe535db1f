package main

import (
	"os"

	"github.com/soundprediction/ordinato/cmd/ordinato"
)

func main() {
	if err := ordinato.Execute(); err != nil {
		os.Exit(1)
	}
}
