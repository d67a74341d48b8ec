package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wovenlabs/loom/pkg/manifest"
)

// loom-manifest validates extension manifests from the command line.
//
// Usage:
//
//	loom-manifest validate <path>...
//	loom-manifest scan <dir>
func main() {
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		usage()
		os.Exit(2)
	}

	var failed bool
	switch args[0] {
	case "validate":
		for _, path := range args[1:] {
			if !validateFile(path) {
				failed = true
			}
		}
	case "scan":
		failed = !scanDir(args[1])
	default:
		usage()
		os.Exit(2)
	}

	if failed {
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `loom-manifest validates extension manifests.

Usage:
  loom-manifest validate <path>...   validate one or more manifest files
  loom-manifest scan <dir>           validate every extension under a directory
`)
}

// validateFile validates a single manifest file and prints the result.
func validateFile(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
		return false
	}

	result := manifest.Validate(data)
	if result.Valid {
		fmt.Printf("%s: OK (%s %s)\n", path, result.Manifest.ID, result.Manifest.Version)
		return true
	}

	fmt.Printf("%s: INVALID\n", path)
	for _, fieldErr := range result.Errors {
		fmt.Printf("  %s: %s\n", fieldErr.Field, fieldErr.Message)
	}
	return false
}

// scanDir validates every immediate subdirectory's manifest.
func scanDir(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", dir, err)
		return false
	}

	ok := true
	checked := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		path := filepath.Join(dir, entry.Name(), manifest.FileName)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		checked++
		if !validateFile(path) {
			ok = false
		}
	}

	fmt.Printf("checked %d manifests\n", checked)
	return ok
}
