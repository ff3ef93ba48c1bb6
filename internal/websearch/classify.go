// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package websearch

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"strings"
	"time"
)

// FailureKind classifies a provider failure. The kind determines the wait
// before the next retry attempt.
type FailureKind string

const (
	FailureDNS       FailureKind = "dns"
	FailureRateLimit FailureKind = "rate_limit"
	FailureTimeout   FailureKind = "timeout"
	FailureOther     FailureKind = "other"
)

// backoffRule gives the wait window for one failure kind. When Max exceeds
// Min the actual wait is drawn uniformly from [Min, Max].
type backoffRule struct {
	Min time.Duration
	Max time.Duration
}

// backoffTable maps each failure kind to its retry wait window.
var backoffTable = map[FailureKind]backoffRule{
	FailureDNS:       {Min: 5 * time.Second, Max: 5 * time.Second},
	FailureRateLimit: {Min: 60 * time.Second, Max: 60 * time.Second},
	FailureTimeout:   {Min: 3 * time.Second, Max: 7 * time.Second},
	FailureOther:     {Min: 1 * time.Second, Max: 3 * time.Second},
}

// errRateLimited is returned by backends on an HTTP 429 or 202 response.
var errRateLimited = errors.New("provider rate limited")

// Classify maps a backend error to a FailureKind.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureOther
	}

	if errors.Is(err, errRateLimited) {
		return FailureRateLimit
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return FailureDNS
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}

	// Fall back to message matching for errors that cross API boundaries
	// without their original type.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no such host") || strings.Contains(msg, "dns"):
		return FailureDNS
	case strings.Contains(msg, "rate") || strings.Contains(msg, "429") || strings.Contains(msg, "202"):
		return FailureRateLimit
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return FailureTimeout
	default:
		return FailureOther
	}
}

// retryWait returns the backoff duration for a failure kind, using rng for
// the randomized windows.
func retryWait(kind FailureKind, rng *rand.Rand) time.Duration {
	rule, ok := backoffTable[kind]
	if !ok {
		rule = backoffTable[FailureOther]
	}
	if rule.Max <= rule.Min {
		return rule.Min
	}
	return rule.Min + time.Duration(rng.Int63n(int64(rule.Max-rule.Min)))
}
