package platform

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

func TestLookup(t *testing.T) {
	for _, slug := range Slugs() {
		p, err := Lookup(slug)
		assert.NoError(t, err)
		assert.Equal(t, slug, p.Slug)
		assert.NotEqual(t, "", p.StartCommand)
	}

	_, err := Lookup("heroku")
	assert.Error(t, err)
}

func TestDetect(t *testing.T) {
	t.Run("render marker", func(t *testing.T) {
		dir := t.TempDir()
		assert.NoError(t, os.WriteFile(filepath.Join(dir, "render.yaml"), []byte("services: []\n"), 0o644))
		p, ok := Detect(dir)
		assert.True(t, ok)
		assert.Equal(t, "render", p.Slug)
	})

	t.Run("fly marker", func(t *testing.T) {
		dir := t.TempDir()
		assert.NoError(t, os.WriteFile(filepath.Join(dir, "fly.toml"), []byte("app = \"x\"\n"), 0o644))
		p, ok := Detect(dir)
		assert.True(t, ok)
		assert.Equal(t, "fly", p.Slug)
	})

	t.Run("no marker", func(t *testing.T) {
		_, ok := Detect(t.TempDir())
		assert.False(t, ok)
	})
}

func TestValidRuntime(t *testing.T) {
	assert.True(t, ValidRuntime("python-3.11.9"))
	assert.True(t, ValidRuntime("python-3.12"))
	assert.False(t, ValidRuntime("3.11.9"))
	assert.False(t, ValidRuntime("python3.11"))
	assert.False(t, ValidRuntime("node-20"))
}

func TestScaffoldRender(t *testing.T) {
	dir := t.TempDir()
	p, err := Lookup("render")
	assert.NoError(t, err)

	written, err := p.Scaffold(dir, ScaffoldOptions{
		AppName: "boatapp",
		EnvVars: []string{"GCP_CREDENTIALS_JSON", "SECRET_KEY"},
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, len(written))

	procfile, err := os.ReadFile(filepath.Join(dir, "Procfile"))
	assert.NoError(t, err)
	assert.Equal(t, "web: gunicorn app:app\n", string(procfile))

	runtime, err := os.ReadFile(filepath.Join(dir, "runtime.txt"))
	assert.NoError(t, err)
	assert.True(t, ValidRuntime(strings.TrimSpace(string(runtime))))

	data, err := os.ReadFile(filepath.Join(dir, "render.yaml"))
	assert.NoError(t, err)
	var cfg renderFile
	assert.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, 1, len(cfg.Services))
	assert.Equal(t, "boatapp", cfg.Services[0].Name)
	assert.Equal(t, "gunicorn app:app", cfg.Services[0].StartCommand)
	assert.Equal(t, 2, len(cfg.Services[0].EnvVars))
	assert.False(t, cfg.Services[0].EnvVars[0].Sync)
}

func TestScaffoldFly(t *testing.T) {
	dir := t.TempDir()
	p, err := Lookup("fly")
	assert.NoError(t, err)

	_, err = p.Scaffold(dir, ScaffoldOptions{AppName: "boatapp"})
	assert.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "fly.toml"))
	assert.NoError(t, err)
	var cfg flyFile
	assert.NoError(t, toml.Unmarshal(data, &cfg))
	assert.Equal(t, "boatapp", cfg.App)
	assert.Equal(t, 8080, cfg.HTTPService.InternalPort)
	assert.True(t, cfg.HTTPService.ForceHTTPS)
}

func TestScaffoldDoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()
	custom := "web: gunicorn wsgi:application\n"
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "Procfile"), []byte(custom), 0o644))

	p, err := Lookup("railway")
	assert.NoError(t, err)

	_, err = p.Scaffold(dir, ScaffoldOptions{AppName: "boatapp"})
	assert.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "Procfile"))
	assert.NoError(t, err)
	assert.Equal(t, custom, string(data))

	_, err = p.Scaffold(dir, ScaffoldOptions{AppName: "boatapp", Force: true})
	assert.NoError(t, err)
	data, err = os.ReadFile(filepath.Join(dir, "Procfile"))
	assert.NoError(t, err)
	assert.Equal(t, "web: gunicorn app:app\n", string(data))
}

func TestScaffoldRejectsBadRuntime(t *testing.T) {
	p, err := Lookup("render")
	assert.NoError(t, err)
	_, err = p.Scaffold(t.TempDir(), ScaffoldOptions{Runtime: "node-20"})
	assert.Error(t, err)
}
