// Package envfile reads and writes deployment env profiles (.env files),
// preserving comments and unknown lines when updating values in place.
package envfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultName is the profile file used when no environment is named.
const DefaultName = ".env"

// validIdentifierPattern matches valid environment variable identifiers.
var validIdentifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ErrKeyNotFound is returned by Get when the profile has no such key.
var ErrKeyNotFound = errors.New("key not found in profile")

// Filename returns the profile filename for an environment, e.g. ".env.prod"
// for "prod" and ".env" for the empty string.
func Filename(environment string) (string, error) {
	if environment == "" {
		return DefaultName, nil
	}
	if strings.ContainsAny(environment, ".\\/") {
		return "", fmt.Errorf("invalid environment name: %s - should not contain dots or path separators", environment)
	}
	for _, char := range environment {
		if !strings.Contains("abcdefghijklmnopqrstuvwxyz0123456789", string(char)) {
			return "", fmt.Errorf("invalid environment name: %s - should be lowercase alphanumeric", environment)
		}
	}
	return DefaultName + "." + environment, nil
}

// Parse decodes .env content into a key-value map.
func Parse(data []byte) (map[string]string, error) {
	return godotenv.Parse(bytes.NewReader(data))
}

// Read loads a profile file from disk. A missing file yields an empty map.
func Read(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading profile %s: %w", path, err)
	}
	return Parse(data)
}

// Get returns the value for key in the profile at path.
func Get(path, key string) (string, error) {
	vars, err := Read(path)
	if err != nil {
		return "", err
	}
	v, ok := vars[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	return v, nil
}

// SetValues updates key-value pairs in .env content, preserving comments,
// blank lines and the order of existing entries. Keys not already present
// are appended at the end.
func SetValues(data []byte, updates map[string]string) ([]byte, error) {
	for key := range updates {
		if !validIdentifierPattern.MatchString(key) {
			return nil, fmt.Errorf("invalid environment variable name: %q", key)
		}
	}

	seen := make(map[string]bool, len(updates))
	scanner := bufio.NewScanner(bytes.NewReader(data))
	var buffer bytes.Buffer
	for scanner.Scan() {
		line := scanner.Text()
		trimmedLine := strings.TrimSpace(line)

		if strings.HasPrefix(trimmedLine, "#") || trimmedLine == "" {
			buffer.WriteString(line + "\n")
			continue
		}

		parts := strings.SplitN(trimmedLine, "=", 2)
		if len(parts) != 2 {
			if isLikelyMalformedEntry(trimmedLine) {
				return nil, fmt.Errorf("line appears malformed (no '=' found): %q", trimmedLine)
			}
			buffer.WriteString(line + "\n")
			continue
		}

		key := strings.TrimSpace(parts[0])
		if newValue, ok := updates[key]; ok {
			buffer.WriteString(fmt.Sprintf("%s=%s\n", key, newValue))
			seen[key] = true
			continue
		}
		buffer.WriteString(line + "\n")
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// Append new keys in stable order.
	var added []string
	for key := range updates {
		if !seen[key] {
			added = append(added, key)
		}
	}
	sort.Strings(added)
	for _, key := range added {
		buffer.WriteString(fmt.Sprintf("%s=%s\n", key, updates[key]))
	}

	return buffer.Bytes(), nil
}

// UnsetValue removes a key from .env content, leaving everything else as-is.
func UnsetValue(data []byte, key string) ([]byte, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	var buffer bytes.Buffer
	for scanner.Scan() {
		line := scanner.Text()
		trimmedLine := strings.TrimSpace(line)
		parts := strings.SplitN(trimmedLine, "=", 2)
		if len(parts) == 2 && strings.TrimSpace(parts[0]) == key {
			continue
		}
		buffer.WriteString(line + "\n")
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// SetFile applies SetValues to the profile at path, creating it with the
// generated-file banner when it does not exist yet.
func SetFile(path string, updates map[string]string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("reading profile %s: %w", path, err)
		}
		data = []byte(Banner())
	}
	out, err := SetValues(data, updates)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o600)
}

// isLikelyMalformedEntry checks if a line looks like an intended key-value
// pair but is missing the '=' sign. This helps catch typos like "SECRET_KEY"
// instead of "SECRET_KEY=value".
func isLikelyMalformedEntry(line string) bool {
	if strings.HasPrefix(line, "export ") {
		return false
	}
	if len(line) < 3 {
		return false
	}
	return validIdentifierPattern.MatchString(line)
}
