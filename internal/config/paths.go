package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/josephgoksu/CostWing/types"
)

// GetGlobalConfigDir returns the directory searched for a user-wide config
// file ($HOME). It's a variable to allow overriding in tests.
var GetGlobalConfigDir = func() (string, error) {
	return os.UserHomeDir()
}

// WorkspaceDir returns the workspace directory under root.
func WorkspaceDir(cfg types.AppConfig, root string) string {
	if filepath.IsAbs(cfg.Project.RootDir) {
		return cfg.Project.RootDir
	}
	return filepath.Join(root, cfg.Project.RootDir)
}

// DataPath resolves the result store location. Relative paths live in the
// workspace directory; the sqlite backend swaps a file-store extension for .db.
func DataPath(cfg types.AppConfig, root string) string {
	file := cfg.Data.File
	if file == "" {
		file = DefaultDataFile
	}
	if cfg.Data.Backend == BackendSQLite {
		switch strings.ToLower(filepath.Ext(file)) {
		case ".json", ".yaml", ".yml", ".toml":
			file = strings.TrimSuffix(file, filepath.Ext(file)) + ".db"
		}
	}
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(WorkspaceDir(cfg, root), file)
}

// CrashLogDir is where panic reports are written.
func CrashLogDir(cfg types.AppConfig, root string) string {
	return filepath.Join(WorkspaceDir(cfg, root), "crash_logs")
}
