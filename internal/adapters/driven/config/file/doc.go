// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - ConfigStore: TOML configuration at ~/.ragdocs/config.toml
//   - LoadEnvFile: optional .env loading ahead of settings resolution
package file
