package conversation

import (
	"context"
	"errors"
	"strings"

	contractx "github.com/CharlesKZhang/Reservation-Bot/agent/contract"
)

// Backend phrasings that mean the credential itself is bad: rejected keys,
// unbilled accounts, and the "entity not found" shape some gateways return
// for unknown keys.
var authFailureHints = []string{
	"401",
	"403",
	"unauthorized",
	"authentication",
	"invalid api key",
	"entity not found",
}

var timeoutHints = []string{
	"deadline exceeded",
	"timed out",
	"timeout",
}

const (
	replyModelUnavailable = "I couldn't reach the reservation assistant just now. Please try again in a moment."
	replyModelAuth        = "Your model credential was rejected. Please check or re-select your API key and try again."
	replyTimeout          = "That took longer than expected and I had to give up. Please try again."
)

// classifyModelFailure maps a failed model round trip to a failure kind and
// a plain-language reply. The turn never re-raises; the caller layer uses
// the kind to decide on things like a credential-reselection flow.
func classifyModelFailure(err error) (contractx.FailureKind, string) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, contractx.ErrTurnTimeout) {
		return contractx.FailureTimeout, replyTimeout
	}
	if errors.Is(err, contractx.ErrModelAuth) {
		return contractx.FailureModelAuth, replyModelAuth
	}

	text := strings.ToLower(err.Error())
	for _, hint := range timeoutHints {
		if strings.Contains(text, hint) {
			return contractx.FailureTimeout, replyTimeout
		}
	}
	for _, hint := range authFailureHints {
		if strings.Contains(text, hint) {
			return contractx.FailureModelAuth, replyModelAuth
		}
	}
	return contractx.FailureModelUnavailable, replyModelUnavailable
}
