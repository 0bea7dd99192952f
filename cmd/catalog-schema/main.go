package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"terrain-streamer/internal/catalog"
)

func main() {
	var outPath, checkPath string
	flag.StringVar(&outPath, "out", "", "path to write the JSON schema")
	flag.StringVar(&checkPath, "check", "", "catalog file to validate instead of writing the schema")
	flag.Parse()

	if checkPath != "" {
		if err := checkCatalog(checkPath); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", checkPath, err)
			os.Exit(1)
		}
		return
	}

	if outPath == "" {
		fmt.Fprintln(os.Stderr, "--out is required")
		os.Exit(1)
	}

	if err := writeSchema(outPath); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write schema: %v\n", err)
		os.Exit(1)
	}
}

func checkCatalog(path string) error {
	doc, err := catalog.Load(path)
	if err != nil {
		return err
	}
	set, err := doc.TemplateSet()
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d templates, %d forced, width %g\n", path, len(set.Templates), len(set.Forced), doc.SegmentWidth)
	return nil
}

func writeSchema(outPath string) error {
	data, err := catalog.SchemaJSON()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}

	return nil
}
