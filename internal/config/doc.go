// Package config defines the application configuration model and its
// loading logic. Configuration comes from an optional YAML file plus
// TRELLIS_-prefixed environment variables (which win), and is validated
// with struct tags before the application starts.
package config
