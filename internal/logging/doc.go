// Package logging provides shared log/slog attribute helpers so that log
// records carry consistent keys across the codebase. It also sanitizes
// host and IP information before it reaches log output: Kubernetes API
// errors embed the API server endpoint, and forensic tooling logs are
// frequently attached to incident reports that leave the cluster owner's
// hands.
package logging
