package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestValidateOrgRepo(t *testing.T) {
	assert.NoError(t, ValidateOrgRepo("acme/boatapp"))
	assert.NoError(t, ValidateOrgRepo("a-b.c/d_e"))
	assert.Error(t, ValidateOrgRepo("acme"))
	assert.Error(t, ValidateOrgRepo("acme/boat/app"))
	assert.Error(t, ValidateOrgRepo("acme/boat app"))
}

func TestProjectFileRoundtrip(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, WriteProjectFile(dir, "acme/boatapp"))

	got, err := ReadProjectFile(dir)
	assert.NoError(t, err)
	assert.Equal(t, "acme/boatapp", got)
}

func TestReadProjectFileMissing(t *testing.T) {
	_, err := ReadProjectFile(t.TempDir())
	assert.Error(t, err)
}

func TestReadProjectFileCorrupt(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, ProjectFileName), []byte("SHIPENV_PROJECT=not-a-repo\n"), 0o644))
	_, err := ReadProjectFile(dir)
	assert.Error(t, err)
}
