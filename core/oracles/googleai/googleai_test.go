package googleai

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/TitzMcgie/Metavern/core/oracles"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected error
	}{
		{name: "deadline", err: fmt.Errorf("rpc: %w", context.DeadlineExceeded), expected: oracles.ErrTimeout},
		{name: "http 429", err: errors.New("googleapi: Error 429: rate limit"), expected: oracles.ErrQuotaExceeded},
		{name: "quota wording", err: errors.New("Quota exceeded for requests"), expected: oracles.ErrQuotaExceeded},
		{name: "resource exhausted", err: errors.New("code = ResourceExhausted desc = out of tokens"), expected: oracles.ErrQuotaExceeded},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := classify(testCase.err); !errors.Is(got, testCase.expected) {
				t.Fatalf("expected %v, got %v", testCase.expected, got)
			}
		})
	}
}

func TestClassifyKeepsUnrelatedErrorsUnclassified(t *testing.T) {
	got := classify(errors.New("connection refused"))
	for _, sentinel := range []error{oracles.ErrTimeout, oracles.ErrQuotaExceeded, oracles.ErrMalformedOutput} {
		if errors.Is(got, sentinel) {
			t.Fatalf("expected plain transport error, got %v", got)
		}
	}
}
