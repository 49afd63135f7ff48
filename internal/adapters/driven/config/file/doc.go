// Package file provides the TOML-backed configuration store. Settings
// live in config.toml under the config directory and can be hot
// reloaded while the process runs.
package file
