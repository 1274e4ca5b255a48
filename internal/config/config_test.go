package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/fileserver/internal/server"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 5, cfg.Backlog)
	assert.Equal(t, "index.html", cfg.DefaultDocument)
	assert.True(t, cfg.DirectoryListing)
	assert.True(t, cfg.AttachmentHeader)
	assert.Contains(t, cfg.Downloads, ".pdf")
	assert.Zero(t, cfg.ReadTimeout)
	assert.Zero(t, cfg.WriteTimeout)

	require.NoError(t, cfg.Validate())
	assert.True(t, filepath.IsAbs(cfg.Root))
}

func TestLoadTOML(t *testing.T) {
	root := t.TempDir()
	p := writeFile(t, "fileserver.toml", `
host = "127.0.0.1"
port = 8080
root = "`+filepath.ToSlash(root)+`"
directory_listing = false
download_extensions = [".tar"]
max_workers = 8
read_timeout = "5s"
log_level = "debug"
`)

	cfg, err := Load(p)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.DirectoryListing)
	assert.Equal(t, []string{".tar"}, cfg.Downloads)
	assert.Equal(t, 8, cfg.MaxWorkers)
	assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
	assert.Equal(t, server.LevelDebug, cfg.Level())

	// Test: Unset keys keep their defaults
	assert.Equal(t, 128, cfg.QueueSize)
	assert.True(t, cfg.AttachmentHeader)
}

func TestLoadYAML(t *testing.T) {
	root := t.TempDir()
	p := writeFile(t, "fileserver.yml", `
port: 9100
root: `+filepath.ToSlash(root)+`
attachment_headers: false
normalize_unicode: true
write_timeout: 250ms
queue_size: 4
`)

	cfg, err := Load(p)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 9100, cfg.Port)
	assert.False(t, cfg.AttachmentHeader)
	assert.True(t, cfg.NormalizeUnicode)
	assert.Equal(t, 250*time.Millisecond, cfg.WriteTimeout)
	assert.Equal(t, 4, cfg.QueueSize)
	assert.Equal(t, "0.0.0.0", cfg.Host)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(writeFile(t, "fileserver.json", `{}`))
	assert.ErrorContains(t, err, "unsupported config format")

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.toml", `port = "eighty"`))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "port: [1"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	file := writeFile(t, "plain.txt", "x")

	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.Port = 70000 }, "port 70000 out of range"},
		{"workers", func(c *Config) { c.MaxWorkers = -1 }, "max_workers"},
		{"queue", func(c *Config) { c.QueueSize = -1 }, "queue_size"},
		{"timeouts", func(c *Config) { c.ReadTimeout = -time.Second }, "timeouts"},
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "unknown log level"},
		{"document", func(c *Config) { c.DefaultDocument = "../index.html" }, "default_document"},
		{"empty root", func(c *Config) { c.Root = "" }, "root is required"},
		{"missing root", func(c *Config) { c.Root = filepath.Join(t.TempDir(), "nope") }, "root"},
		{"file root", func(c *Config) { c.Root = file }, "not a directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestConverters(t *testing.T) {
	cfg := Default()
	cfg.Root = t.TempDir()
	cfg.Host = "127.0.0.1"
	cfg.ServerName = "files"
	cfg.WriteTimeout = time.Second
	require.NoError(t, cfg.Validate())

	sc := cfg.ServerConfig()
	assert.Equal(t, "127.0.0.1:9000", sc.Addr())
	assert.Equal(t, "files", sc.ServerName)
	assert.Equal(t, time.Second, sc.WriteTimeout)
	assert.Equal(t, cfg.MaxWorkers, sc.MaxWorkers)

	opts := cfg.FileserverOptions()
	assert.Equal(t, cfg.Root, opts.Root)
	assert.Equal(t, "files", opts.ServerName)
	assert.True(t, opts.DirectoryListing)
	assert.Equal(t, cfg.Downloads, opts.DownloadExtensions)
}
