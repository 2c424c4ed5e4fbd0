package commands

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

//go:embed all:templates
var templateFS embed.FS

// exampleData is the document imported by init --example.
const exampleData = "catalog.xml"

// projectTemplate returns the embedded project skeleton called name.
func projectTemplate(name string) (fs.FS, error) {
	if _, err := fs.Stat(templateFS, path.Join("templates", name)); err != nil {
		return nil, fmt.Errorf("unknown project template %q", name)
	}
	return fs.Sub(templateFS, path.Join("templates", name))
}

// writeTemplate writes the template called name into dir and returns the
// files written, relative to dir. Existing files are left alone unless
// overwrite is set.
func writeTemplate(name, dir string, overwrite bool) ([]string, error) {
	tmpl, err := projectTemplate(name)
	if err != nil {
		return nil, err
	}

	var written []string
	err = fs.WalkDir(tmpl, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || p == "." {
			return err
		}

		rel := diskName(p)
		target := filepath.Join(dir, filepath.FromSlash(rel))
		if d.IsDir() {
			return os.MkdirAll(target, 0750)
		}
		if !overwrite {
			if _, err := os.Stat(target); err == nil {
				return nil
			}
		}

		data, err := fs.ReadFile(tmpl, p)
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, data, 0600); err != nil {
			return err
		}
		written = append(written, rel)
		return nil
	})
	return written, err
}

// templateFiles lists the files of a template under their on-disk names.
func templateFiles(name string) ([]string, error) {
	tmpl, err := projectTemplate(name)
	if err != nil {
		return nil, err
	}

	var files []string
	err = fs.WalkDir(tmpl, ".", func(p string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			files = append(files, diskName(p))
		}
		return err
	})
	return files, err
}

// diskName maps a template path to the name it is written under. Dotfiles
// are stored without their dot.
func diskName(p string) string {
	dir, base := path.Split(p)
	if base == "gitignore" {
		return dir + ".gitignore"
	}
	return p
}
