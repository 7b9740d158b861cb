// Package config loads the hamster configuration from a YAML file and
// environment variables and validates it. It covers the HTTP server, the
// static site and its redirect pages, the poll loop, the probe, session
// storage and logging.
package config
