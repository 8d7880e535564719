package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultRuntime is the runtime.txt content written when none is given.
const DefaultRuntime = "python-3.11.9"

var runtimePattern = regexp.MustCompile(`^python-\d+\.\d+(\.\d+)?$`)

// ValidRuntime reports whether s is a valid runtime.txt pin, e.g.
// "python-3.11.9".
func ValidRuntime(s string) bool {
	return runtimePattern.MatchString(strings.TrimSpace(s))
}

// ScaffoldOptions configures Scaffold.
type ScaffoldOptions struct {
	// AppName names the service in generated platform configs.
	AppName string
	// Runtime overrides DefaultRuntime for runtime.txt.
	Runtime string
	// EnvVars are declared (not valued) in platform configs that support
	// env declarations, so the operator knows what to fill in.
	EnvVars []string
	// Force overwrites files that already exist.
	Force bool
}

// Scaffold writes the deployment files for the platform into dir: a
// Procfile, a runtime.txt and the platform's own config file. Existing files
// are left alone unless Force is set. It returns the paths written.
func (p Platform) Scaffold(dir string, opts ScaffoldOptions) ([]string, error) {
	if opts.AppName == "" {
		opts.AppName = filepath.Base(absDir(dir))
	}
	if opts.Runtime == "" {
		opts.Runtime = DefaultRuntime
	}
	if !ValidRuntime(opts.Runtime) {
		return nil, fmt.Errorf("invalid runtime %q: want e.g. %q", opts.Runtime, DefaultRuntime)
	}

	files := map[string][]byte{
		"Procfile":    []byte("web: " + p.StartCommand + "\n"),
		"runtime.txt": []byte(opts.Runtime + "\n"),
	}

	switch p.ConfigFile {
	case "render.yaml":
		data, err := renderConfig(p, opts)
		if err != nil {
			return nil, err
		}
		files["render.yaml"] = data
	case "fly.toml":
		data, err := flyConfig(opts)
		if err != nil {
			return nil, err
		}
		files["fly.toml"] = data
	}

	var written []string
	for name, content := range files {
		path := filepath.Join(dir, name)
		if !opts.Force {
			if _, err := os.Stat(path); err == nil {
				continue
			}
		}
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return written, fmt.Errorf("writing %s: %w", name, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func absDir(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	return abs
}

type renderEnvVar struct {
	Key  string `yaml:"key"`
	Sync bool   `yaml:"sync"`
}

type renderService struct {
	Type         string         `yaml:"type"`
	Name         string         `yaml:"name"`
	Env          string         `yaml:"env"`
	BuildCommand string         `yaml:"buildCommand"`
	StartCommand string         `yaml:"startCommand"`
	EnvVars      []renderEnvVar `yaml:"envVars,omitempty"`
}

type renderFile struct {
	Services []renderService `yaml:"services"`
}

func renderConfig(p Platform, opts ScaffoldOptions) ([]byte, error) {
	svc := renderService{
		Type:         "web",
		Name:         opts.AppName,
		Env:          "python",
		BuildCommand: "pip install -r requirements.txt",
		StartCommand: p.StartCommand,
	}
	for _, name := range opts.EnvVars {
		// sync: false marks the value as a dashboard-managed secret.
		svc.EnvVars = append(svc.EnvVars, renderEnvVar{Key: name, Sync: false})
	}
	return yaml.Marshal(renderFile{Services: []renderService{svc}})
}

type flyHTTPService struct {
	InternalPort int  `toml:"internal_port"`
	ForceHTTPS   bool `toml:"force_https"`
}

type flyFile struct {
	App         string            `toml:"app"`
	Env         map[string]string `toml:"env,omitempty"`
	HTTPService flyHTTPService    `toml:"http_service"`
}

func flyConfig(opts ScaffoldOptions) ([]byte, error) {
	cfg := flyFile{
		App: opts.AppName,
		HTTPService: flyHTTPService{
			InternalPort: 8080,
			ForceHTTPS:   true,
		},
	}
	if len(opts.EnvVars) > 0 {
		cfg.Env = make(map[string]string, len(opts.EnvVars))
		for _, name := range opts.EnvVars {
			cfg.Env[name] = ""
		}
	}
	return toml.Marshal(cfg)
}
