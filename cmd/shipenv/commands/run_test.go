package commands

import (
	"strings"
	"testing"
)

func TestValidateCommand(t *testing.T) {
	tests := []struct {
		name    string
		command []string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "empty command",
			command: []string{},
			wantErr: true,
			errMsg:  "no command specified",
		},
		{
			name:    "valid simple command",
			command: []string{"gunicorn", "app:app"},
			wantErr: false,
		},
		{
			name:    "valid command with flags",
			command: []string{"flask", "run", "--port", "8080"},
			wantErr: false,
		},
		{
			name:    "command substitution with $()",
			command: []string{"echo", "$(whoami)"},
			wantErr: true,
			errMsg:  "shell metacharacters",
		},
		{
			name:    "command substitution with backticks",
			command: []string{"echo", "`whoami`"},
			wantErr: true,
			errMsg:  "shell metacharacters",
		},
		{
			name:    "nested command substitution",
			command: []string{"bash", "-c", "$(cat /etc/passwd)"},
			wantErr: true,
			errMsg:  "shell metacharacters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCommand(tt.command)
			if tt.wantErr {
				if err == nil {
					t.Errorf("validateCommand() expected error containing %q, got nil", tt.errMsg)
					return
				}
				if tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("validateCommand() error = %q, want error containing %q", err.Error(), tt.errMsg)
				}
			} else {
				if err != nil {
					t.Errorf("validateCommand() unexpected error = %v", err)
				}
			}
		})
	}
}

func TestSanitizeEnvVars(t *testing.T) {
	tests := []struct {
		name     string
		input    map[string]string
		expected map[string]string
	}{
		{
			name:     "nil map",
			input:    nil,
			expected: nil,
		},
		{
			name: "valid env vars unchanged",
			input: map[string]string{
				"GCP_CREDENTIALS_JSON": `{"type":"service_account"}`,
				"PORT":                 "8080",
				"SECRET_KEY":           "",
			},
			expected: map[string]string{
				"GCP_CREDENTIALS_JSON": `{"type":"service_account"}`,
				"PORT":                 "8080",
				"SECRET_KEY":           "",
			},
		},
		{
			name: "removes keys with equals sign",
			input: map[string]string{
				"VALID":   "value",
				"BAD=KEY": "should be removed",
			},
			expected: map[string]string{
				"VALID": "value",
			},
		},
		{
			name: "removes keys with semicolon or newline",
			input: map[string]string{
				"VALID":    "value",
				"BAD;KEY":  "should be removed",
				"BAD\nKEY": "should be removed",
			},
			expected: map[string]string{
				"VALID": "value",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sanitizeEnvVars(tt.input)

			if tt.expected == nil {
				if result != nil {
					t.Errorf("sanitizeEnvVars() = %v, want nil", result)
				}
				return
			}

			if len(result) != len(tt.expected) {
				t.Errorf("sanitizeEnvVars() returned %d items, want %d", len(result), len(tt.expected))
			}
			for k, v := range tt.expected {
				if got, ok := result[k]; !ok {
					t.Errorf("sanitizeEnvVars() missing expected key %q", k)
				} else if got != v {
					t.Errorf("sanitizeEnvVars()[%q] = %q, want %q", k, got, v)
				}
			}
		})
	}
}
