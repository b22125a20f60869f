package ai

import (
	"errors"
	"strings"
)

var (
	ErrProviderUnavailable = errors.New("ai provider unavailable")
	ErrInferenceTimeout    = errors.New("ai inference timeout")
	ErrInvalidResponse     = errors.New("ai provider returned invalid response")
	ErrContentPolicy       = errors.New("ai provider rejected the prompt under its content policy")
)

// IsContentPolicy reports whether err is a content-policy rejection, either wrapped
// as ErrContentPolicy or carrying one of the upstream rejection phrases.
func IsContentPolicy(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrContentPolicy) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "content_policy_violation") || strings.Contains(msg, "safety system")
}
