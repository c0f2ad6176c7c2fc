package remote

import "strings"

// ErrorKind buckets remote API failures for logging and retry decisions.
type ErrorKind string

const (
	KindUnclassified     ErrorKind = "unclassified"
	KindAuthentication   ErrorKind = "authentication"
	KindRateLimited      ErrorKind = "rate_limited"
	KindUpstreamDegraded ErrorKind = "upstream_degraded"
)

// Classify buckets err by the status-code text embedded in its message.
// Remote client errors carry the HTTP status line, so substring checks are
// enough to separate auth failures, throttling, and upstream outages.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindUnclassified
	}
	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "401", "403", "unauthenticated", "permission denied", "invalid api key"):
		return KindAuthentication
	case containsAny(msg, "429", "rate limit", "quota exceeded", "resource exhausted"):
		return KindRateLimited
	case containsAny(msg, "500", "502", "503", "504", "unavailable", "bad gateway", "internal server error"):
		return KindUpstreamDegraded
	default:
		return KindUnclassified
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
