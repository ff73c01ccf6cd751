// Package config loads the optional rc file (~/.goqlshrc.yaml). Values from
// the file provide defaults; command-line flags win when both are set.
package config

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// RC holds the settings the rc file may provide.
type RC struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Keyspace string `yaml:"keyspace"`

	Engine string `yaml:"engine"` // cassandra (default), postgres, mysql, sqlite
	DSN    string `yaml:"dsn"`    // SQL engines only

	OutputFormat string `yaml:"output_format"`
	Expand       bool   `yaml:"expand"`
	MaxWidth     int    `yaml:"max_width"`
	NoColor      bool   `yaml:"no_color"`

	Consistency string `yaml:"consistency"`
	PageSize    int    `yaml:"page_size"`

	ConnectTimeout int `yaml:"connect_timeout"` // seconds
	RequestTimeout int `yaml:"request_timeout"` // seconds
}

// DefaultPath returns ~/.goqlshrc.yaml, or "" when the home directory cannot
// be resolved.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".goqlshrc.yaml")
}

// Load reads the rc file at path. A missing or empty file yields zero-value
// settings, not an error; a malformed file does error.
func Load(path string) (*RC, error) {
	if path == "" {
		return &RC{}, nil
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return &RC{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open rc file %q", path)
	}
	defer func() { _ = f.Close() }()

	var rc RC
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&rc); err != nil {
		if errors.Is(err, io.EOF) {
			return &RC{}, nil
		}
		return nil, errors.Wrapf(err, "cannot parse rc file %q", path)
	}
	return &rc, nil
}
