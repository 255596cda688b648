package project

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupFS creates an in-memory filesystem with the given directories and empty files.
func setupFS(t *testing.T, dirs []string, files []string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()

	for _, dir := range dirs {
		err := fs.MkdirAll(dir, 0755)
		require.NoError(t, err, "failed to create dir: %s", dir)
	}
	for _, file := range files {
		err := afero.WriteFile(fs, file, []byte{}, 0644)
		require.NoError(t, err, "failed to create file: %s", file)
	}
	return fs
}

func TestDetect_WorkspaceDirWins(t *testing.T) {
	// Structure:
	//   /repo/.git/
	//   /repo/plans/.costwing/
	//   /repo/plans/q3/project.yaml
	fs := setupFS(t,
		[]string{"/repo/.git", "/repo/plans/.costwing", "/repo/plans/q3"},
		[]string{"/repo/plans/q3/project.yaml"},
	)

	ctx, err := NewDetector(fs, "").Detect("/repo/plans/q3")
	require.NoError(t, err)

	assert.Equal(t, "/repo/plans", ctx.RootPath)
	assert.Equal(t, MarkerCostWing, ctx.MarkerType)
	assert.True(t, ctx.HasDataDir())
	assert.Equal(t, "/repo/plans/.costwing", ctx.DataDir(""))
}

func TestDetect_FallsBackToGitRoot(t *testing.T) {
	fs := setupFS(t, []string{"/repo/.git", "/repo/a/b"}, nil)

	ctx, err := NewDetector(fs, "").Detect("/repo/a/b")
	require.NoError(t, err)

	assert.Equal(t, "/repo", ctx.RootPath)
	assert.Equal(t, MarkerGit, ctx.MarkerType)
	assert.False(t, ctx.HasDataDir())
}

func TestDetect_WorkspaceMarkerMustBeDirectory(t *testing.T) {
	fs := setupFS(t, []string{"/repo/.git", "/repo/sub"}, []string{"/repo/sub/.costwing"})

	ctx, err := NewDetector(fs, "").Detect("/repo/sub")
	require.NoError(t, err)
	assert.Equal(t, "/repo", ctx.RootPath)
}

func TestDetect_CustomDirName(t *testing.T) {
	fs := setupFS(t, []string{"/work/.plans", "/work/x"}, nil)

	ctx, err := NewDetector(fs, ".plans").Detect("/work/x")
	require.NoError(t, err)
	assert.Equal(t, "/work", ctx.RootPath)
	assert.Equal(t, "/work/.plans", ctx.DataDir(".plans"))
}

func TestDetect_NothingFound(t *testing.T) {
	fs := setupFS(t, []string{"/tmp/empty"}, nil)
	d := NewDetector(fs, "")

	_, err := d.Detect("/tmp/empty")
	assert.ErrorIs(t, err, ErrNoProjectFound)

	ctx, err := d.DetectOrCwd("/tmp/empty")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/empty", ctx.RootPath)
	assert.Equal(t, MarkerNone, ctx.MarkerType)
}

func TestMarkerTypeString(t *testing.T) {
	assert.Equal(t, ".costwing", MarkerCostWing.String())
	assert.Equal(t, ".git", MarkerGit.String())
	assert.Equal(t, "none", MarkerNone.String())
}
