package mailer

import (
	"errors"
	"net"
	"strings"

	"github.com/nimbus-console/nimbus-console/internal/shared"
)

// Classify translates a delivery error into a domain error code. This is the
// only place in the codebase that matches on provider message substrings;
// everything downstream branches on the returned code.
func Classify(err error) shared.ErrorCode {
	if err == nil {
		return ""
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return shared.CodeNetworkFailure
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "sender identity"):
		return shared.CodeSenderIdentity
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "too many requests"):
		return shared.CodeRateLimited
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "broken pipe"):
		return shared.CodeNetworkFailure
	default:
		return shared.CodeInternal
	}
}
