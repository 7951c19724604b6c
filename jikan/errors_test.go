package jikan

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jonwraymond/animedata/resilience"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	transport := &TransportError{URL: "u", StatusCode: 502, Attempts: 3, Cause: errors.New("bad gateway")}
	tests := []struct {
		err  error
		want error
		not  []error
	}{
		{&RateLimitError{URL: "u", Attempts: 3}, ErrRateLimitExceeded, []error{ErrTransport}},
		{transport, ErrTransport, []error{ErrRateLimitExceeded}},
		{&IncompleteResourceError{ID: 1, Part: PartStaff, Cause: transport}, ErrIncompleteResource, nil},
		{&QueryError{Kind: KindSearch, Field: "query", Reason: "must not be empty"}, ErrInvalidQuery, []error{ErrTransport}},
	}
	for _, tt := range tests {
		wrapped := fmt.Errorf("context: %w", tt.err)
		if !errors.Is(wrapped, tt.want) {
			t.Errorf("%T does not match %v", tt.err, tt.want)
		}
		for _, n := range tt.not {
			if errors.Is(wrapped, n) {
				t.Errorf("%T unexpectedly matches %v", tt.err, n)
			}
		}
	}
}

func TestIncompleteResourceError_UnwrapsCause(t *testing.T) {
	err := error(&IncompleteResourceError{ID: 9, Part: PartCharacters, Cause: &TransportError{URL: "u", Cause: resilience.ErrCircuitOpen}})

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatal("cause should be reachable with errors.As")
	}
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Error("root cause should match")
	}
	if !strings.Contains(err.Error(), "characters") {
		t.Errorf("message should name the part: %q", err.Error())
	}
}

func TestTransportError_Message(t *testing.T) {
	err := &TransportError{URL: "http://h/x", StatusCode: 503, Attempts: 2}
	if got := err.Error(); !strings.Contains(got, "status 503") || !strings.Contains(got, "2 attempts") {
		t.Errorf("Error() = %q", got)
	}
}
