// Package shipenv converts cloud credentials files into the single-line
// environment variable form that hosting platforms (Render, Railway, Cloud
// Run, Fly.io) expect, and carries the shared conventions the rest of the
// module builds on.
package shipenv

import (
	"fmt"
	"io"
	"regexp"

	"github.com/shipenv/shipenv/pkg/credentials"
)

// Environment variable conventions shared between the CLI, the doctor checks
// and the deployed application.
const (
	// CredentialsEnvVar holds the single-line service account key JSON.
	CredentialsEnvVar = "GCP_CREDENTIALS_JSON"
	// PortEnvVar is supplied by the hosting platform at runtime.
	PortEnvVar = "PORT"
	// SecretKeyEnvVar holds the application session secret.
	SecretKeyEnvVar = "SECRET_KEY"
	// GeminiAPIKeyEnvVar holds the optional Gemini API key.
	GeminiAPIKeyEnvVar = "GEMINI_API_KEY"
)

var envNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ConvertFile reads a service account key file, validates it, and returns its
// compact single-line JSON form, ready to paste into a platform's
// environment variable field.
func ConvertFile(path string) (string, error) {
	key, err := credentials.Load(path)
	if err != nil {
		return "", err
	}
	if err := key.Validate(); err != nil {
		return "", fmt.Errorf("invalid credentials in %s: %w", path, err)
	}
	return key.Compact()
}

// Convert reads a credentials document from in and writes its single-line
// form to out, returning the number of bytes written. A trailing newline is
// appended so the output composes with shell pipelines.
func Convert(in io.Reader, out io.Writer) (int, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return 0, err
	}
	key, err := credentials.Parse(data)
	if err != nil {
		return 0, err
	}
	if err := key.Validate(); err != nil {
		return 0, err
	}
	line, err := key.Compact()
	if err != nil {
		return 0, err
	}
	return fmt.Fprintln(out, line)
}

// ValidEnvName reports whether name is a valid environment variable
// identifier.
func ValidEnvName(name string) bool {
	return envNamePattern.MatchString(name)
}

// WriteEnvEntry writes a NAME=value line suitable for a .env file or a
// platform env import. The value must already be single-line.
func WriteEnvEntry(w io.Writer, name, value string) error {
	if !ValidEnvName(name) {
		return fmt.Errorf("invalid environment variable name: %q", name)
	}
	for _, c := range value {
		if c == '\n' || c == '\r' {
			return fmt.Errorf("value for %s contains a newline", name)
		}
	}
	_, err := fmt.Fprintf(w, "%s=%s\n", name, value)
	return err
}
