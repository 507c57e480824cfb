package types

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty specs dir returns ErrSpecsDirEmpty",
			config:  Config{SpecsDir: "", WorkspaceRoot: "/tmp/ws"},
			wantErr: ErrSpecsDirEmpty,
		},
		{
			name:    "empty workspace root returns ErrWorkspaceRootEmpty",
			config:  Config{SpecsDir: "specs"},
			wantErr: ErrWorkspaceRootEmpty,
		},
		{
			name:    "valid config",
			config:  Config{SpecsDir: "specs", WorkspaceRoot: "/tmp/ws"},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	var c Config
	if got := c.TestRoot(); got != DefaultTestDir {
		t.Errorf("TestRoot() = %q, want %q", got, DefaultTestDir)
	}
	if got := c.Patterns(); len(got) != len(DefaultTestPatterns) {
		t.Errorf("Patterns() = %v, want defaults", got)
	}

	c.TestDir = "e2e"
	c.TestPatterns = []string{"**/*_test.go"}
	if got := c.TestRoot(); got != "e2e" {
		t.Errorf("TestRoot() = %q, want e2e", got)
	}
	if got := c.Patterns(); len(got) != 1 || got[0] != "**/*_test.go" {
		t.Errorf("Patterns() = %v", got)
	}
}
