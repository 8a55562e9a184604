// Package config manages user-level settings stored at ~/.dxbuild/config.yaml
// and the DX_-prefixed environment. It resolves the ambient workspace, API
// server address, and security context into an explicit Config value that
// the builders receive instead of reading the process environment.
package config
