// Package config provides configuration management for the workflow engine
// core: sandbox timeouts, job resource defaults, and construction-time
// guardrails. See Default, Development, Production and Testing for the
// bundled profiles.
package config
