// Package credentials models cloud service-account key files and their
// conversion into the single-line form that deployment platforms accept as
// an environment variable value.
package credentials

import (
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"

	gojson "github.com/dustin/gojson"
)

// Canonical field names of a service account key document.
const (
	FieldType                    = "type"
	FieldProjectID               = "project_id"
	FieldPrivateKeyID            = "private_key_id"
	FieldPrivateKey              = "private_key"
	FieldClientEmail             = "client_email"
	FieldClientID                = "client_id"
	FieldAuthURI                 = "auth_uri"
	FieldTokenURI                = "token_uri"
	FieldAuthProviderX509CertURL = "auth_provider_x509_cert_url"
	FieldClientX509CertURL       = "client_x509_cert_url"
	FieldUniverseDomain          = "universe_domain"
)

// TypeServiceAccount is the only credential type this package accepts.
const TypeServiceAccount = "service_account"

// ErrNotFound indicates the credentials file does not exist on disk.
var ErrNotFound = errors.New("credentials file not found")

// ErrInvalidJSON indicates the credentials file is not a valid JSON document.
var ErrInvalidJSON = errors.New("credentials file is not valid JSON")

// ErrNotServiceAccount means the document parsed but its "type" field is not
// "service_account" (e.g. an OAuth client or an unrelated JSON file).
var ErrNotServiceAccount = errors.New("credentials are not a service account key")

// ErrMissingField means a required key field is absent or empty.
var ErrMissingField = errors.New("required field missing")

// ErrInvalidPrivateKey means the private_key field does not hold a PEM block.
var ErrInvalidPrivateKey = errors.New("private_key is not a valid PEM block")

// ErrInvalidClientEmail means the client_email field is not an email address.
var ErrInvalidClientEmail = errors.New("client_email is not an email address")

// ServiceAccountKey is a parsed service account key document. The well-known
// fields are exposed as struct fields; the full document, including any
// fields this package does not know about, is retained so that Compact can
// reproduce it without losses.
type ServiceAccountKey struct {
	Type                    string
	ProjectID               string
	PrivateKeyID            string
	PrivateKey              string
	ClientEmail             string
	ClientID                string
	AuthURI                 string
	TokenURI                string
	AuthProviderX509CertURL string
	ClientX509CertURL       string
	UniverseDomain          string

	raw map[string]interface{}
}

// Load reads and parses a service account key file from disk.
func Load(path string) (*ServiceAccountKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading credentials file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a service account key document. Unknown fields are kept so
// the document round-trips through Compact unchanged in content.
func Parse(data []byte) (*ServiceAccountKey, error) {
	var raw map[string]interface{}
	if err := gojson.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	k := &ServiceAccountKey{raw: raw}
	k.Type = stringField(raw, FieldType)
	k.ProjectID = stringField(raw, FieldProjectID)
	k.PrivateKeyID = stringField(raw, FieldPrivateKeyID)
	k.PrivateKey = stringField(raw, FieldPrivateKey)
	k.ClientEmail = stringField(raw, FieldClientEmail)
	k.ClientID = stringField(raw, FieldClientID)
	k.AuthURI = stringField(raw, FieldAuthURI)
	k.TokenURI = stringField(raw, FieldTokenURI)
	k.AuthProviderX509CertURL = stringField(raw, FieldAuthProviderX509CertURL)
	k.ClientX509CertURL = stringField(raw, FieldClientX509CertURL)
	k.UniverseDomain = stringField(raw, FieldUniverseDomain)
	return k, nil
}

func stringField(raw map[string]interface{}, name string) string {
	v, ok := raw[name]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Validate checks that the key has the fields a deployment platform needs to
// authenticate with. It does not call out to any cloud API.
func (k *ServiceAccountKey) Validate() error {
	if k.Type == "" {
		return fmt.Errorf("%w: %s", ErrMissingField, FieldType)
	}
	if k.Type != TypeServiceAccount {
		return fmt.Errorf("%w: type is %q", ErrNotServiceAccount, k.Type)
	}
	for _, f := range []struct {
		name  string
		value string
	}{
		{FieldProjectID, k.ProjectID},
		{FieldPrivateKeyID, k.PrivateKeyID},
		{FieldPrivateKey, k.PrivateKey},
		{FieldClientEmail, k.ClientEmail},
	} {
		if f.value == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
	}

	block, _ := pem.Decode([]byte(k.PrivateKey))
	if block == nil {
		return ErrInvalidPrivateKey
	}
	if !strings.Contains(block.Type, "PRIVATE KEY") {
		return fmt.Errorf("%w: unexpected PEM type %q", ErrInvalidPrivateKey, block.Type)
	}

	if !looksLikeEmail(k.ClientEmail) {
		return fmt.Errorf("%w: %q", ErrInvalidClientEmail, k.ClientEmail)
	}
	return nil
}

func looksLikeEmail(s string) bool {
	at := strings.Index(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}
	domain := s[at+1:]
	return strings.Contains(domain, ".") && !strings.ContainsAny(s, " \t\n")
}

// Compact serializes the full key document as a single line of JSON, the form
// deployment platform environment-variable fields require. Newlines inside
// the private key survive as \n escapes. The output parses back to an
// equivalent document.
func (k *ServiceAccountKey) Compact() (string, error) {
	if k.raw == nil {
		return "", fmt.Errorf("key was not produced by Parse")
	}
	out, err := json.Marshal(k.raw)
	if err != nil {
		return "", fmt.Errorf("serializing credentials: %w", err)
	}
	s := string(out)
	if strings.ContainsAny(s, "\r\n") {
		return "", fmt.Errorf("serialized credentials contain a raw newline")
	}
	return s, nil
}

// Fingerprint returns a short identifier safe to print or log. The private
// key never appears in it.
func (k *ServiceAccountKey) Fingerprint() string {
	id := k.PrivateKeyID
	if len(id) > 8 {
		id = id[:8]
	}
	if k.ClientEmail == "" && id == "" {
		return "unknown"
	}
	return fmt.Sprintf("%s/%s", k.ClientEmail, id)
}
