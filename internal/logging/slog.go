package logging

import (
	"log/slog"
	"regexp"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation = "operation"
	KeyNamespace = "namespace"
	KeyPod       = "pod"
	KeyNode      = "node"
	KeyWorkload  = "workload"
	KeyPolicy    = "policy"
	KeyStatus    = "status"
	KeyError     = "error"
)

// Status values for consistent logging.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusError   = "error"
)

// ipv4Regex matches IPv4 addresses for sanitization.
var ipv4Regex = regexp.MustCompile(`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`)

// ipv6Regex matches IPv6 addresses, including the bracketed form used in URLs.
var ipv6Regex = regexp.MustCompile(`\[?([0-9a-fA-F]{0,4}:){2,7}[0-9a-fA-F]{0,4}\]?`)

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Namespace returns a slog attribute for the namespace.
func Namespace(ns string) slog.Attr {
	return slog.String(KeyNamespace, ns)
}

// Pod returns a slog attribute for a pod name.
func Pod(name string) slog.Attr {
	return slog.String(KeyPod, name)
}

// Node returns a slog attribute for a node name.
func Node(name string) slog.Attr {
	return slog.String(KeyNode, name)
}

// Workload returns a slog attribute for a workload name.
func Workload(name string) slog.Attr {
	return slog.String(KeyWorkload, name)
}

// Policy returns a slog attribute for a network policy name.
func Policy(name string) slog.Attr {
	return slog.String(KeyPolicy, name)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Err returns a slog attribute for an error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

// SanitizedErr returns a slog attribute for an error with IP addresses
// redacted. Kubernetes API errors routinely contain the API server host,
// which should not leak through logs shipped off-cluster.
func SanitizedErr(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, SanitizeHost(err.Error()))
}

// SanitizeHost redacts IPv4 and IPv6 addresses from s.
//
// Examples:
//   - "https://192.168.1.100:6443" -> "https://<redacted-ip>:6443"
//   - "dial tcp [2001:db8::1]:6443" -> "dial tcp <redacted-ip>:6443"
//   - "api.cluster.example.com" is left untouched
func SanitizeHost(s string) string {
	if s == "" {
		return "<empty>"
	}
	out := ipv4Regex.ReplaceAllString(s, "<redacted-ip>")
	out = ipv6Regex.ReplaceAllString(out, "<redacted-ip>")
	return out
}
