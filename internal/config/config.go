package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dxtoolkit/dxbuild/internal/branding"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Config keys. Each is also read from the environment as DX_<KEY>.
const (
	KeyWorkspaceID       = "workspace_id"
	KeyProjectContextID  = "project_context_id"
	KeyAPIServerHost     = "apiserver_host"
	KeyAPIServerPort     = "apiserver_port"
	KeyAPIServerProtocol = "apiserver_protocol"
	KeySecurityContext   = "security_context"
)

// Keys lists every key understood by the config file, in display order.
var Keys = []string{
	KeyWorkspaceID,
	KeyProjectContextID,
	KeyAPIServerHost,
	KeyAPIServerPort,
	KeyAPIServerProtocol,
	KeySecurityContext,
}

const (
	DefaultAPIServerHost     = "api.dnanexus.com"
	DefaultAPIServerPort     = 443
	DefaultAPIServerProtocol = "https"
)

// Config is the ambient state a build runs against.
type Config struct {
	WorkspaceID       string `validate:"omitempty,startswith=project-|startswith=container-"`
	ProjectContextID  string `validate:"omitempty,startswith=project-|startswith=container-"`
	APIServerHost     string `validate:"required,hostname_rfc1123|ip"`
	APIServerPort     int    `validate:"required,min=1,max=65535"`
	APIServerProtocol string `validate:"required,oneof=http https"`
	AuthTokenType     string `validate:"required_with=AuthToken"`
	AuthToken         string
}

// securityContext mirrors the JSON stored in DX_SECURITY_CONTEXT.
type securityContext struct {
	AuthTokenType string `json:"auth_token_type"`
	AuthToken     string `json:"auth_token"`
}

// Workspace returns the ambient project used when neither the command line
// nor the manifest names one. Empty when nothing is configured.
func (c *Config) Workspace() string {
	if c.WorkspaceID != "" {
		return c.WorkspaceID
	}
	return c.ProjectContextID
}

// APIServerURL returns the base URL of the API server.
func (c *Config) APIServerURL() string {
	return fmt.Sprintf("%s://%s:%d", c.APIServerProtocol, c.APIServerHost, c.APIServerPort)
}

// Dir returns the path to the config directory (~/.dxbuild/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.dxbuild/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Init points the global Viper instance at the config file and environment.
func Init() {
	configure(viper.GetViper(), FilePath())
}

// Load initializes the global Viper instance and returns the resolved Config.
func Load() (*Config, error) {
	Init()
	return FromViper(viper.GetViper())
}

// configure wires a Viper instance to a config file, the DX_ environment, and defaults.
func configure(v *viper.Viper, path string) {
	v.SetConfigFile(path)
	v.SetConfigType(fileType)
	v.SetEnvPrefix(branding.EnvPrefix())
	v.AutomaticEnv()

	v.SetDefault(KeyAPIServerHost, DefaultAPIServerHost)
	v.SetDefault(KeyAPIServerPort, DefaultAPIServerPort)
	v.SetDefault(KeyAPIServerProtocol, DefaultAPIServerProtocol)

	// Ignore error if config file doesn't exist yet.
	_ = v.ReadInConfig()
}

// FromViper builds and validates a Config from an already configured Viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		WorkspaceID:       strings.TrimSpace(v.GetString(KeyWorkspaceID)),
		ProjectContextID:  strings.TrimSpace(v.GetString(KeyProjectContextID)),
		APIServerHost:     v.GetString(KeyAPIServerHost),
		APIServerPort:     v.GetInt(KeyAPIServerPort),
		APIServerProtocol: strings.ToLower(v.GetString(KeyAPIServerProtocol)),
	}

	if raw := strings.TrimSpace(v.GetString(KeySecurityContext)); raw != "" {
		var sc securityContext
		if err := json.Unmarshal([]byte(raw), &sc); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", branding.EnvVar(KeySecurityContext), err)
		}
		cfg.AuthTokenType = sc.AuthTokenType
		cfg.AuthToken = sc.AuthToken
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field formats and reports every failing key.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("validating config: %w", err)
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value()))
	}
	sort.Strings(msgs)
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// IsKnownKey reports whether key is one of Keys.
func IsKnownKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if !IsKnownKey(key) {
		return fmt.Errorf("unknown config key %q (known keys: %s)", key, strings.Join(Keys, ", "))
	}
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
