package config

import (
	"os"
	"path/filepath"
)

// ConfigFileName is the file init writes.
const ConfigFileName = "sqltree.yaml"

// ConfigFileNames lists the accepted config file names in lookup order.
var ConfigFileNames = []string{ConfigFileName, "sqltree.yml"}

// FindConfigFile returns the path of the config file in dir, or "".
func FindConfigFile(dir string) string {
	for _, name := range ConfigFileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// FindProjectRoot returns the nearest directory at or above startDir that
// holds a config file, or "" when there is none up to the filesystem root.
func FindProjectRoot(startDir string) string {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		dir = filepath.Clean(startDir)
	}
	for {
		if FindConfigFile(dir) != "" {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
