package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	yaml "gopkg.in/yaml.v3"
)

func TestSecretString_Masking(t *testing.T) {
	tests := []struct {
		name     string
		input    SecretString
		wantJSON string
		wantStr  string
	}{
		{"empty", "", "null", ""},
		{"token", "eyJhbGciOiJIUzI1NiJ9.payload.sig", `"` + SecretStringValue + `"`, SecretStringValue},
		{"single char", "x", `"` + SecretStringValue + `"`, SecretStringValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.input)
			if err != nil {
				t.Fatalf("json.Marshal() error = %v", err)
			}
			if string(got) != tt.wantJSON {
				t.Errorf("json = %s, want %s", got, tt.wantJSON)
			}
			if s := fmt.Sprintf("%v", tt.input); s != tt.wantStr {
				t.Errorf("%%v = %q, want %q", s, tt.wantStr)
			}
			if tt.input.Reveal() != string(tt.input) {
				t.Error("Reveal() must return actual value")
			}
		})
	}
}

func TestSecretString_InStruct(t *testing.T) {
	cfg := ImagesConfig{AuthToken: "bearer-value"}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("yaml.Marshal() error = %v", err)
	}
	if strings.Contains(string(data), "bearer-value") {
		t.Errorf("yaml output leaks secret: %s", data)
	}

	data, err = json.Marshal(cfg)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if strings.Contains(string(data), "bearer-value") {
		t.Errorf("json output leaks secret: %s", data)
	}

	// empty secret is omitted from yaml
	data, err = yaml.Marshal(ImagesConfig{})
	if err != nil {
		t.Fatalf("yaml.Marshal() error = %v", err)
	}
	if strings.Contains(string(data), "auth_token") {
		t.Errorf("empty secret should be omitted: %s", data)
	}
}

func TestSecretString_Unmarshal(t *testing.T) {
	var cfg ImagesConfig
	if err := yaml.Unmarshal([]byte("auth_token: abc\n"), &cfg); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	if cfg.AuthToken.Reveal() != "abc" {
		t.Errorf("AuthToken = %q, want abc", cfg.AuthToken.Reveal())
	}
}
