// Package config defines the application's configuration structure and
// loading logic. Configuration comes from an optional config.yaml plus
// QUIZFORGE_-prefixed environment variables, with env vars taking
// precedence, and is validated before use.
package config
