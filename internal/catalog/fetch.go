package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	getter "github.com/hashicorp/go-getter"
)

// FileName is the name the fetched catalog is stored under.
const FileName = "catalog.json"

// Fetch downloads the catalog from src into dir and returns the local path.
// src is any go-getter source: a local path, http(s) URL, git::, s3:: or gcs::
// address, optionally with a //subpath and ?checksum=.
func Fetch(ctx context.Context, src, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create catalog directory %s: %w", dir, err)
	}

	pwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("working directory: %w", err)
	}

	dst := filepath.Join(dir, FileName)
	client := &getter.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Pwd:  pwd,
		Mode: getter.ClientModeFile,
	}
	if err := client.Get(); err != nil {
		return "", fmt.Errorf("fetch catalog %s: %w", src, err)
	}
	return dst, nil
}

// FetchAndLoad fetches src into dir and parses it.
func FetchAndLoad(ctx context.Context, src, dir string) (*Document, error) {
	path, err := Fetch(ctx, src, dir)
	if err != nil {
		return nil, err
	}
	return Load(path)
}
