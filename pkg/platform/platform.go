// Package platform describes the hosting platforms shipenv can prepare a
// repository for, and generates their config files.
package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// Platform describes one hosting platform's deployment conventions.
type Platform struct {
	// Name is the human-readable platform name.
	Name string
	// Slug is the identifier used on the CLI.
	Slug string
	// ConfigFile is the platform's own config file, if it has one.
	ConfigFile string
	// StartCommand is the conventional WSGI start command.
	StartCommand string
	// EnvValueLimit is the largest env var value the platform accepts, in
	// bytes. Zero means no documented limit.
	EnvValueLimit int
	// InjectsPort is true when the platform supplies PORT at runtime.
	InjectsPort bool
}

// DefaultStartCommand is the WSGI start convention shared by the platforms.
const DefaultStartCommand = "gunicorn app:app"

var registry = []Platform{
	{
		Name:          "Render",
		Slug:          "render",
		ConfigFile:    "render.yaml",
		StartCommand:  DefaultStartCommand,
		EnvValueLimit: 32 * 1024,
		InjectsPort:   true,
	},
	{
		Name:          "Railway",
		Slug:          "railway",
		ConfigFile:    "Procfile",
		StartCommand:  DefaultStartCommand,
		EnvValueLimit: 32 * 1024,
		InjectsPort:   true,
	},
	{
		Name:          "Google Cloud Run",
		Slug:          "cloudrun",
		ConfigFile:    "Procfile",
		StartCommand:  DefaultStartCommand,
		EnvValueLimit: 32 * 1024,
		InjectsPort:   true,
	},
	{
		Name:          "Fly.io",
		Slug:          "fly",
		ConfigFile:    "fly.toml",
		StartCommand:  DefaultStartCommand,
		EnvValueLimit: 0,
		InjectsPort:   false,
	},
}

// All returns the supported platforms.
func All() []Platform {
	out := make([]Platform, len(registry))
	copy(out, registry)
	return out
}

// Slugs returns the CLI identifiers of all supported platforms.
func Slugs() []string {
	slugs := make([]string, 0, len(registry))
	for _, p := range registry {
		slugs = append(slugs, p.Slug)
	}
	return slugs
}

// Lookup finds a platform by slug.
func Lookup(slug string) (Platform, error) {
	for _, p := range registry {
		if p.Slug == slug {
			return p, nil
		}
	}
	return Platform{}, fmt.Errorf("unknown platform %q (supported: %v)", slug, Slugs())
}

// Detect infers the target platform from config files present in dir.
func Detect(dir string) (Platform, bool) {
	markers := []struct {
		file string
		slug string
	}{
		{"render.yaml", "render"},
		{"fly.toml", "fly"},
		{"railway.json", "railway"},
		{"railway.toml", "railway"},
	}
	for _, m := range markers {
		if _, err := os.Stat(filepath.Join(dir, m.file)); err == nil {
			p, _ := Lookup(m.slug)
			return p, true
		}
	}
	return Platform{}, false
}
