// Package config loads Complyscan configuration from local and global YAML
// files with precedence rules. It is internal; CLI code maps flags and
// files into backend and scanner configuration.
package config
