// Package config provides configuration structures and utilities for floorscan.
// It defines the extraction options (token grouping method, recognizer marks,
// concurrency), report output preferences, and the .floorscan YAML file.
package config
