package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/evidence"
	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/store"
)

// #region io

// readJSON decodes the file at path into v.
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// readBundle loads and validates a product bundle file.
func readBundle(path string) (evidence.Bundle, error) {
	var b evidence.Bundle
	if err := readJSON(path, &b); err != nil {
		return evidence.Bundle{}, err
	}
	if err := evidence.ValidateBundle(b); err != nil {
		return evidence.Bundle{}, fmt.Errorf("bundle %s: %w", path, err)
	}
	return b, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// #endregion io

// #region store

// openStore opens the database at path, falling back to the configured one.
func (a *app) openStore(path string) (*store.Store, error) {
	if path == "" {
		path = a.cfg.DBPath
	}
	st, err := store.NewStore(path, a.logger)
	if err != nil {
		return nil, fmt.Errorf("open db %s: %w", path, err)
	}
	return st, nil
}

// #endregion store

// #region format
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// #endregion format
