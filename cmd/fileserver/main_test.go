package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestResolveCommand(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("hi"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "docs"), 0o755))

	out, err := execute(t, "resolve", "--root", root, "/", "/docs/", "/nope.txt", "/../etc/passwd", "/%zz")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "file      /index.html -> "), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "directory /docs/ -> "), lines[1])
	assert.Equal(t, "missing   /nope.txt -> -", lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "escape    /../etc/passwd -> "), lines[3])
	assert.True(t, strings.HasPrefix(lines[4], "invalid   /%zz -> "), lines[4])
}

func TestResolveCommandRequiresPath(t *testing.T) {
	_, err := execute(t, "resolve", "--root", t.TempDir())
	assert.Error(t, err)
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	fromFile := t.TempDir()
	fromFlag := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(fromFlag, "home.html"), []byte("hi"), 0o644))

	cfgPath := filepath.Join(t.TempDir(), "fileserver.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(
		"root: "+filepath.ToSlash(fromFile)+"\n"+
			"default_document: home.html\n"), 0o644))

	// Test: The file alone
	out, err := execute(t, "resolve", "--config", cfgPath, "/")
	require.NoError(t, err)
	assert.Equal(t, "missing   /home.html -> -", strings.TrimSpace(out))

	// Test: --root wins over the file, the rest of the file still applies
	out, err = execute(t, "resolve", "--config", cfgPath, "--root", fromFlag, "/")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "file      /home.html -> "), out)
}

func TestInvalidConfig(t *testing.T) {
	_, err := execute(t, "resolve", "--root", filepath.Join(t.TempDir(), "missing"), "/")
	assert.Error(t, err)

	_, err = execute(t, "resolve", "--root", t.TempDir(), "--log-level", "loud", "/")
	assert.ErrorContains(t, err, "unknown log level")

	_, err = execute(t, "serve", "--config", filepath.Join(t.TempDir(), "x.ini"))
	assert.ErrorContains(t, err, "unsupported config format")
}
