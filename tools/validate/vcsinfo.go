//go:build validate_vcsinfo
// +build validate_vcsinfo

package main

import (
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "Usage: go run -tags=validate_vcsinfo ./tools/validate/vcsinfo.go <schema.json> <vcs-info.json>\n")
		os.Exit(1)
	}

	schemaFile := os.Args[1]
	dataFile := os.Args[2]

	schemaBytes, err := os.ReadFile(schemaFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading schema file: %v\n", err)
		os.Exit(1)
	}

	dataBytes, err := os.ReadFile(dataFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading vcs-info file: %v\n", err)
		os.Exit(1)
	}

	schemaLoader := gojsonschema.NewBytesLoader(schemaBytes)
	documentLoader := gojsonschema.NewBytesLoader(dataBytes)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error validating: %v\n", err)
		os.Exit(1)
	}

	if !result.Valid() {
		fmt.Println("❌ Validation failed:")
		for _, err := range result.Errors() {
			fmt.Printf("  - %s: %s\n", err.Field(), err.Description())
		}
		os.Exit(1)
	}

	fmt.Println("✅ vcs-info validation succeeded")
}
