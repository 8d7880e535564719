package envfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestFilename(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		want        string
		wantErr     bool
	}{
		{"default", "", ".env", false},
		{"prod", "prod", ".env.prod", false},
		{"staging2", "staging2", ".env.staging2", false},
		{"uppercase", "Prod", "", true},
		{"with dot", "pro.d", "", true},
		{"with slash", "pro/d", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Filename(tt.environment)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetValues(t *testing.T) {
	t.Run("updates existing key in place", func(t *testing.T) {
		in := "# comment\nSECRET_KEY=old\nPORT=8080\n"
		out, err := SetValues([]byte(in), map[string]string{"SECRET_KEY": "new"})
		assert.NoError(t, err)
		assert.Equal(t, "# comment\nSECRET_KEY=new\nPORT=8080\n", string(out))
	})

	t.Run("appends missing keys sorted", func(t *testing.T) {
		out, err := SetValues([]byte("A=1\n"), map[string]string{"C": "3", "B": "2"})
		assert.NoError(t, err)
		assert.Equal(t, "A=1\nB=2\nC=3\n", string(out))
	})

	t.Run("preserves comments and blanks", func(t *testing.T) {
		in := "# header\n\nA=1\n"
		out, err := SetValues([]byte(in), map[string]string{"A": "2"})
		assert.NoError(t, err)
		assert.Equal(t, "# header\n\nA=2\n", string(out))
	})

	t.Run("rejects invalid key", func(t *testing.T) {
		_, err := SetValues(nil, map[string]string{"BAD KEY": "x"})
		assert.Error(t, err)
	})

	t.Run("flags malformed line", func(t *testing.T) {
		_, err := SetValues([]byte("SECRET_KEY\n"), map[string]string{"A": "1"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "malformed")
	})
}

func TestUnsetValue(t *testing.T) {
	out, err := UnsetValue([]byte("A=1\nB=2\n# keep\n"), "A")
	assert.NoError(t, err)
	assert.Equal(t, "B=2\n# keep\n", string(out))
}

func TestSetFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env.prod")

	assert.NoError(t, SetFile(path, map[string]string{"PORT": "8080"}))
	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "#"))
	assert.Contains(t, string(data), "PORT=8080")

	// Second write must not duplicate the key.
	assert.NoError(t, SetFile(path, map[string]string{"PORT": "9090"}))
	vars, err := Read(path)
	assert.NoError(t, err)
	assert.Equal(t, "9090", vars["PORT"])
}

func TestGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	assert.NoError(t, os.WriteFile(path, []byte("SECRET_KEY=abc\n"), 0o600))

	v, err := Get(path, "SECRET_KEY")
	assert.NoError(t, err)
	assert.Equal(t, "abc", v)

	_, err = Get(path, "MISSING")
	assert.IsError(t, err, ErrKeyNotFound)
}

func TestFormat(t *testing.T) {
	out := Format(map[string]string{
		"GCP_CREDENTIALS_JSON": `{"type":"service_account"}`,
		"SECRET_KEY":           "abc",
		"PORT":                 "8080",
	})
	credIdx := strings.Index(out, "GCP_CREDENTIALS_JSON=")
	portIdx := strings.Index(out, "PORT=")
	assert.True(t, credIdx > 0 && portIdx > credIdx)
	assert.Contains(t, out, "Do not commit")
}
