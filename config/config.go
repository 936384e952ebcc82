package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMeshExtension = ".hmsh"
	DefaultLogLevel      = "info"
)

type Config struct {
	// SceneExtensions are converted to meshes, everything else is copied
	SceneExtensions []string `yaml:"scene_extensions"`
	MeshExtension   string   `yaml:"mesh_extension"`
	Workers         int      `yaml:"workers"`
	LogLevel        string   `yaml:"log_level"`
}

func Default() *Config {
	return &Config{
		SceneExtensions: []string{".gltf", ".glb"},
		MeshExtension:   DefaultMeshExtension,
		Workers:         1,
		LogLevel:        DefaultLogLevel,
	}
}

// Load reads a yaml file over the defaults. Keys missing from the file keep
// their default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot read config %q", path)
	}
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.Wrapf(err, "Unmarshaling config %q", path)
	}
	c.normalize()
	if err := c.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %q", path)
	}
	return c, nil
}

func (c *Config) normalize() {
	for i, ext := range c.SceneExtensions {
		c.SceneExtensions[i] = strings.ToLower(strings.TrimSpace(ext))
	}
	c.MeshExtension = strings.ToLower(strings.TrimSpace(c.MeshExtension))
}

func (c *Config) Validate() error {
	if len(c.SceneExtensions) == 0 {
		return errors.New("scene_extensions is empty")
	}
	for _, ext := range c.SceneExtensions {
		if !validExtension(ext) {
			return errors.Errorf("scene extension %q must start with a dot", ext)
		}
		if ext == c.MeshExtension {
			return errors.Errorf("scene extension %q equals mesh extension", ext)
		}
	}
	if !validExtension(c.MeshExtension) {
		return errors.Errorf("mesh extension %q must start with a dot", c.MeshExtension)
	}
	if c.Workers < 1 {
		return errors.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

func validExtension(ext string) bool {
	return len(ext) > 1 && ext[0] == '.' && !strings.ContainsAny(ext[1:], `./\`)
}
