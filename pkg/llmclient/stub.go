package llmclient

import (
	"context"
	"fmt"

	"github.com/coderloop/coderloop/pkg/loop"
)

// StubResponse is one canned turn for StubClient.
type StubResponse struct {
	Text    string
	Partial bool
	Err     error
}

// StubClient is a deterministic in-memory loop.ModelClient for tests: a
// scripted sequence of responses returned in order, with every request
// recorded for assertions.
type StubClient struct {
	Responses []StubResponse
	Requests  []string

	next int
}

// Send returns the next scripted response, recording conv.NextRequest.
// Once the script is exhausted it returns an error rather than looping
// silently, so a misconfigured test fails loudly instead of hanging.
func (c *StubClient) Send(_ context.Context, conv *loop.ConversationState) (string, bool, error) {
	c.Requests = append(c.Requests, conv.NextRequest)
	if c.next >= len(c.Responses) {
		return "", false, fmt.Errorf("stub client script exhausted after %d responses", len(c.Responses))
	}
	r := c.Responses[c.next]
	c.next++
	return r.Text, r.Partial, r.Err
}
