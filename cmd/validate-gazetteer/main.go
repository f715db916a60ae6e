// Command validate-gazetteer checks the embedded destination dataset.
//
// Usage:
//
//	go run ./cmd/validate-gazetteer
//
// Run it after editing gazetteer-data/*.tsv.
package main

import (
	"fmt"
	"os"

	"github.com/andreiashu/tripgeo"
)

func main() {
	fmt.Println("Validating embedded gazetteer...")

	if err := tripgeo.ValidateGazetteer(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Gazetteer OK.")
}
