package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

// newTestViper returns a Viper bound to a config file inside a temp dir.
func newTestViper(t *testing.T, contents string) *viper.Viper {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if contents != "" {
		if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
			t.Fatal(err)
		}
	}
	v := viper.New()
	configure(v, path)
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := FromViper(newTestViper(t, ""))
	if err != nil {
		t.Fatalf("FromViper error: %v", err)
	}
	if cfg.APIServerHost != DefaultAPIServerHost {
		t.Errorf("APIServerHost = %q, want %q", cfg.APIServerHost, DefaultAPIServerHost)
	}
	if cfg.APIServerPort != DefaultAPIServerPort {
		t.Errorf("APIServerPort = %d, want %d", cfg.APIServerPort, DefaultAPIServerPort)
	}
	if got := cfg.APIServerURL(); got != "https://api.dnanexus.com:443" {
		t.Errorf("APIServerURL() = %q", got)
	}
	if cfg.Workspace() != "" {
		t.Errorf("Workspace() = %q, want empty", cfg.Workspace())
	}
}

func TestFromViper_File(t *testing.T) {
	v := newTestViper(t, `workspace_id: project-BBBBBBBBBBBBBBBBBBBBBBBB
apiserver_host: localhost
apiserver_port: 8124
apiserver_protocol: http
`)
	cfg, err := FromViper(v)
	if err != nil {
		t.Fatalf("FromViper error: %v", err)
	}
	if cfg.Workspace() != "project-BBBBBBBBBBBBBBBBBBBBBBBB" {
		t.Errorf("Workspace() = %q", cfg.Workspace())
	}
	if got := cfg.APIServerURL(); got != "http://localhost:8124" {
		t.Errorf("APIServerURL() = %q", got)
	}
}

func TestFromViper_EnvOverridesFile(t *testing.T) {
	t.Setenv("DX_WORKSPACE_ID", "container-CCCCCCCCCCCCCCCCCCCCCCCC")
	v := newTestViper(t, "workspace_id: project-BBBBBBBBBBBBBBBBBBBBBBBB\n")
	cfg, err := FromViper(v)
	if err != nil {
		t.Fatalf("FromViper error: %v", err)
	}
	if cfg.WorkspaceID != "container-CCCCCCCCCCCCCCCCCCCCCCCC" {
		t.Errorf("WorkspaceID = %q", cfg.WorkspaceID)
	}
}

func TestWorkspace_FallsBackToProjectContext(t *testing.T) {
	cfg := &Config{ProjectContextID: "project-AAAAAAAAAAAAAAAAAAAAAAAA"}
	if cfg.Workspace() != "project-AAAAAAAAAAAAAAAAAAAAAAAA" {
		t.Errorf("Workspace() = %q", cfg.Workspace())
	}
	cfg.WorkspaceID = "container-CCCCCCCCCCCCCCCCCCCCCCCC"
	if cfg.Workspace() != "container-CCCCCCCCCCCCCCCCCCCCCCCC" {
		t.Errorf("Workspace() = %q, want workspace id to win", cfg.Workspace())
	}
}

func TestFromViper_SecurityContext(t *testing.T) {
	t.Setenv("DX_SECURITY_CONTEXT", `{"auth_token_type":"Bearer","auth_token":"abc123"}`)
	cfg, err := FromViper(newTestViper(t, ""))
	if err != nil {
		t.Fatalf("FromViper error: %v", err)
	}
	if cfg.AuthTokenType != "Bearer" || cfg.AuthToken != "abc123" {
		t.Errorf("auth = %q %q", cfg.AuthTokenType, cfg.AuthToken)
	}
}

func TestFromViper_BadSecurityContext(t *testing.T) {
	t.Setenv("DX_SECURITY_CONTEXT", `{not json`)
	if _, err := FromViper(newTestViper(t, "")); err == nil {
		t.Fatal("expected error for malformed security context, got nil")
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		APIServerHost:     "api.example.org",
		APIServerPort:     443,
		APIServerProtocol: "https",
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad protocol", func(c *Config) { c.APIServerProtocol = "ftp" }, "APIServerProtocol"},
		{"port out of range", func(c *Config) { c.APIServerPort = 70000 }, "APIServerPort"},
		{"workspace not a container", func(c *Config) { c.WorkspaceID = "file-123" }, "WorkspaceID"},
		{"token without type", func(c *Config) { c.AuthToken = "abc" }, "AuthTokenType"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error mentioning %s", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %s", err, tt.wantErr)
			}
		})
	}
}

func TestIsKnownKey(t *testing.T) {
	if !IsKnownKey(KeyWorkspaceID) {
		t.Error("workspace_id should be known")
	}
	if IsKnownKey("mirror") {
		t.Error("mirror should not be known")
	}
}
