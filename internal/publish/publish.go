package publish

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"menu-builder/internal/model"
)

type WriteOptions struct {
	RenderOptions
	Overwrite bool
}

type WriteResult struct {
	Written []string `json:"written"`
}

// WriteMenu renders a menu and writes it to <toDir>/<slug>.md.
func WriteMenu(toDir string, menu model.Menu, tree []model.MenuItem, opt WriteOptions) (WriteResult, error) {
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing output directory")
	}
	if strings.TrimSpace(menu.Slug) == "" {
		return WriteResult{}, errors.New("missing menu slug")
	}
	md, err := RenderMenuMarkdown(menu, tree, opt.RenderOptions)
	if err != nil {
		return WriteResult{}, err
	}
	if err := os.MkdirAll(toDir, 0o755); err != nil {
		return WriteResult{}, err
	}
	p := filepath.Join(toDir, menu.Slug+".md")
	if err := writeFile(p, []byte(md), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}
	return WriteResult{Written: []string{p}}, nil
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
