// Package utils holds the configuration loader and logger factory shared by the
// relicense binaries. Configuration merges an embedded YAML document, an optional
// file, and RELICENSE_ prefixed environment variables through Viper; loggers are
// zap instances in structured (JSON) or console form.
package utils
