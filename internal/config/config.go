// Package config loads server settings from a TOML or YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/Brownie44l1/fileserver/internal/fileserver"
	"github.com/Brownie44l1/fileserver/internal/request"
	"github.com/Brownie44l1/fileserver/internal/response"
	"github.com/Brownie44l1/fileserver/internal/server"
)

// Config is the file format. Durations are written as strings ("5s").
type Config struct {
	Host string `toml:"host" yaml:"host"`
	Port int    `toml:"port" yaml:"port"`
	Root string `toml:"root" yaml:"root"`

	ServerName       string   `toml:"server_name" yaml:"server_name"`
	DefaultDocument  string   `toml:"default_document" yaml:"default_document"`
	DirectoryListing bool     `toml:"directory_listing" yaml:"directory_listing"`
	AttachmentHeader bool     `toml:"attachment_headers" yaml:"attachment_headers"`
	Downloads        []string `toml:"download_extensions" yaml:"download_extensions"`
	NormalizeUnicode bool     `toml:"normalize_unicode" yaml:"normalize_unicode"`

	MaxWorkers     int `toml:"max_workers" yaml:"max_workers"`
	QueueSize      int `toml:"queue_size" yaml:"queue_size"`
	ReadBufferSize int `toml:"read_buffer_size" yaml:"read_buffer_size"`
	Backlog        int `toml:"backlog" yaml:"backlog"`

	ReadTimeout     time.Duration `toml:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" yaml:"shutdown_timeout"`

	LogLevel string `toml:"log_level" yaml:"log_level"`
	NoColor  bool   `toml:"no_color" yaml:"no_color"`
}

// Default serves the current directory on 0.0.0.0:9000.
func Default() Config {
	s := server.DefaultConfig()
	return Config{
		Host:             s.Host,
		Port:             s.Port,
		Root:             ".",
		ServerName:       response.DefaultServerName,
		DefaultDocument:  request.DefaultDocument,
		DirectoryListing: true,
		AttachmentHeader: true,
		Downloads:        append([]string(nil), fileserver.DefaultDownloadExtensions...),
		MaxWorkers:       s.MaxWorkers,
		QueueSize:        s.QueueSize,
		ReadBufferSize:   s.ReadBufferSize,
		Backlog:          s.Backlog,
		ShutdownTimeout:  10 * time.Second,
		LogLevel:         "info",
	}
}

// Load reads path over the defaults. The format is chosen by extension.
func Load(path string) (Config, error) {
	cfg := Default()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load %s: %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("load %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("load %s: unsupported config format %q", path, ext)
	}

	return cfg, nil
}

// Validate checks ranges and makes Root absolute. The root must be an
// existing directory.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.MaxWorkers < 0 {
		errs = append(errs, errors.New("max_workers must not be negative"))
	}
	if c.QueueSize < 0 {
		errs = append(errs, errors.New("queue_size must not be negative"))
	}
	if c.ReadBufferSize < 0 {
		errs = append(errs, errors.New("read_buffer_size must not be negative"))
	}
	if c.Backlog < 0 {
		errs = append(errs, errors.New("backlog must not be negative"))
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}
	if strings.ContainsAny(c.DefaultDocument, `/\`) {
		errs = append(errs, fmt.Errorf("default_document %q must be a file name", c.DefaultDocument))
	}
	if _, err := server.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	if c.Root == "" {
		errs = append(errs, errors.New("root is required"))
	} else if abs, err := filepath.Abs(c.Root); err != nil {
		errs = append(errs, fmt.Errorf("root: %w", err))
	} else if info, err := os.Stat(abs); err != nil {
		errs = append(errs, fmt.Errorf("root: %w", err))
	} else if !info.IsDir() {
		errs = append(errs, fmt.Errorf("root %s is not a directory", abs))
	} else {
		c.Root = abs
	}

	return errors.Join(errs...)
}

// Level returns the parsed log level; call Validate first.
func (c Config) Level() server.Level {
	l, _ := server.ParseLevel(c.LogLevel)
	return l
}

func (c Config) ServerConfig() server.Config {
	return server.Config{
		Host:             c.Host,
		Port:             c.Port,
		Backlog:          c.Backlog,
		MaxWorkers:       c.MaxWorkers,
		QueueSize:        c.QueueSize,
		ReadBufferSize:   c.ReadBufferSize,
		ReadTimeout:      c.ReadTimeout,
		WriteTimeout:     c.WriteTimeout,
		ServerName:       c.ServerName,
		DefaultDocument:  c.DefaultDocument,
		NormalizeUnicode: c.NormalizeUnicode,
	}
}

func (c Config) FileserverOptions() fileserver.Options {
	return fileserver.Options{
		Root:               c.Root,
		ServerName:         c.ServerName,
		DirectoryListing:   c.DirectoryListing,
		AttachmentHeaders:  c.AttachmentHeader,
		DownloadExtensions: c.Downloads,
	}
}
