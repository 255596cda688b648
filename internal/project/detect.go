package project

import (
	"errors"
	"path/filepath"

	"github.com/spf13/afero"
)

// ErrNoProjectFound is returned when no workspace root could be detected.
var ErrNoProjectFound = errors.New("no project root found")

// DefaultDirName is the workspace directory holding config, results and crash logs.
const DefaultDirName = ".costwing"

// MarkerType identifies what marked a directory as the workspace root.
type MarkerType int

const (
	MarkerNone MarkerType = iota
	MarkerGit
	MarkerCostWing
)

func (m MarkerType) String() string {
	switch m {
	case MarkerCostWing:
		return DefaultDirName
	case MarkerGit:
		return ".git"
	default:
		return "none"
	}
}

// Context describes a detected workspace.
type Context struct {
	// RootPath is the absolute directory that owns the workspace.
	RootPath string
	// MarkerType is the marker that matched.
	MarkerType MarkerType
}

// DataDir returns the workspace directory under RootPath.
func (c *Context) DataDir(dirName string) string {
	if dirName == "" {
		dirName = DefaultDirName
	}
	return filepath.Join(c.RootPath, dirName)
}

// HasDataDir reports whether the workspace directory already exists.
func (c *Context) HasDataDir() bool {
	return c.MarkerType == MarkerCostWing
}

// Detector finds the workspace root. Tests use afero.NewMemMapFs().
type Detector struct {
	fs      afero.Fs
	dirName string
}

// NewDetector creates a Detector that looks for dirName (DefaultDirName if empty).
func NewDetector(fs afero.Fs, dirName string) *Detector {
	if dirName == "" {
		dirName = DefaultDirName
	}
	return &Detector{fs: fs, dirName: dirName}
}

// Detect walks up from startPath. The nearest directory holding the workspace
// directory wins immediately; otherwise the nearest .git root is used.
func (d *Detector) Detect(startPath string) (*Context, error) {
	absPath, err := filepath.Abs(startPath)
	if err != nil {
		return nil, err
	}

	var gitRoot string
	for dir := absPath; ; {
		if d.isDir(filepath.Join(dir, d.dirName)) {
			return &Context{RootPath: dir, MarkerType: MarkerCostWing}, nil
		}
		if gitRoot == "" && d.exists(filepath.Join(dir, ".git")) {
			gitRoot = dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if gitRoot != "" {
		return &Context{RootPath: gitRoot, MarkerType: MarkerGit}, nil
	}
	return nil, ErrNoProjectFound
}

// DetectOrCwd is Detect falling back to startPath itself when nothing matched.
func (d *Detector) DetectOrCwd(startPath string) (*Context, error) {
	ctx, err := d.Detect(startPath)
	if errors.Is(err, ErrNoProjectFound) {
		abs, absErr := filepath.Abs(startPath)
		if absErr != nil {
			return nil, absErr
		}
		return &Context{RootPath: abs, MarkerType: MarkerNone}, nil
	}
	return ctx, err
}

func (d *Detector) isDir(path string) bool {
	info, err := d.fs.Stat(path)
	return err == nil && info.IsDir()
}

func (d *Detector) exists(path string) bool {
	_, err := d.fs.Stat(path)
	return err == nil
}
