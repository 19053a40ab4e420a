package guard

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tempRoot returns a symlink-free temp directory (macOS /var -> /private/var).
func tempRoot(t *testing.T) string {
	t.Helper()

	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

func mkdirs(t *testing.T, root string, rel ...string) {
	t.Helper()

	for _, r := range rel {
		require.NoError(t, os.MkdirAll(filepath.Join(root, r), 0o755))
	}
}

func TestAuthorize_AllowAll(t *testing.T) {
	g := New(nil)
	assert.True(t, g.AllowAll())
	assert.NoError(t, g.Authorize("/etc"))
	assert.NoError(t, g.Authorize("/definitely/not/there"))
}

func TestAuthorize_Containment(t *testing.T) {
	root := tempRoot(t)
	mkdirs(t, root, "project/sub/deep", "project-other", "projectX", "elsewhere")

	g := New([]string{filepath.Join(root, "project")})

	tests := []struct {
		name    string
		path    string
		allowed bool
	}{
		{"root itself", filepath.Join(root, "project"), true},
		{"child", filepath.Join(root, "project", "sub"), true},
		{"grandchild", filepath.Join(root, "project", "sub", "deep"), true},
		{"dotdot back inside", filepath.Join(root, "project", "sub", "..", "sub"), true},
		{"prefix sibling with dash", filepath.Join(root, "project-other"), false},
		{"prefix sibling without separator", filepath.Join(root, "projectX"), false},
		{"parent", root, false},
		{"unrelated", filepath.Join(root, "elsewhere"), false},
		{"dotdot escape", filepath.Join(root, "project", "..", "elsewhere"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.Authorize(tt.path)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNotAllowed))
			assert.Contains(t, err.Error(), tt.path)
		})
	}
}

func TestAuthorize_FirstMatchingRootInOrder(t *testing.T) {
	root := tempRoot(t)
	mkdirs(t, root, "a", "b/c")

	g := New([]string{filepath.Join(root, "a"), filepath.Join(root, "b")})
	assert.NoError(t, g.Authorize(filepath.Join(root, "b", "c")))
	assert.NoError(t, g.Authorize(filepath.Join(root, "a")))
}

func TestAuthorize_SymlinkEscapeRejected(t *testing.T) {
	root := tempRoot(t)
	mkdirs(t, root, "allowed", "secret")

	link := filepath.Join(root, "allowed", "escape")
	require.NoError(t, os.Symlink(filepath.Join(root, "secret"), link))

	g := New([]string{filepath.Join(root, "allowed")})

	err := g.Authorize(link)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotAllowed))
}

func TestAuthorize_SymlinkedAllowedRoot(t *testing.T) {
	root := tempRoot(t)
	mkdirs(t, root, "real/work")

	linkRoot := filepath.Join(root, "alias")
	require.NoError(t, os.Symlink(filepath.Join(root, "real"), linkRoot))

	g := New([]string{linkRoot})
	assert.NoError(t, g.Authorize(filepath.Join(root, "real", "work")))
	assert.NoError(t, g.Authorize(filepath.Join(linkRoot, "work")))
}

func TestAuthorize_MissingAllowedRootNeverMatchesSibling(t *testing.T) {
	root := tempRoot(t)
	mkdirs(t, root, "gone-but-not-quite")

	g := New([]string{filepath.Join(root, "gone")})
	assert.Error(t, g.Authorize(filepath.Join(root, "gone-but-not-quite")))
}

func TestNew_CopiesAllowList(t *testing.T) {
	dirs := []string{"/a"}
	g := New(dirs)
	dirs[0] = "/b"
	assert.Equal(t, []string{"/a"}, g.allowed)
}

func TestResolve(t *testing.T) {
	root := tempRoot(t)
	mkdirs(t, root, "x/y")

	resolved, err := New(nil).Resolve(filepath.Join(root, "x", "..", "x", "y"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "x", "y"), resolved)

	_, err = New(nil).Resolve(filepath.Join(root, "missing"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCheck_Pipeline(t *testing.T) {
	root := tempRoot(t)
	mkdirs(t, root, "work/sub", "etc")
	file := filepath.Join(root, "work", "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	g := New([]string{filepath.Join(root, "work")})

	got, err := g.Check(filepath.Join(root, "work", "sub"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "work", "sub"), got)

	_, err = g.Check(filepath.Join(root, "work", "nope"))
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = g.Check(file)
	assert.True(t, errors.Is(err, ErrNotDirectory))

	_, err = g.Check(filepath.Join(root, "etc"))
	assert.True(t, errors.Is(err, ErrNotAllowed))
}

func TestCheck_NotFoundWinsOverNotAllowed(t *testing.T) {
	root := tempRoot(t)
	mkdirs(t, root, "work")

	g := New([]string{filepath.Join(root, "work")})
	_, err := g.Check(filepath.Join(root, "outside", "missing"))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrNotAllowed))
}
