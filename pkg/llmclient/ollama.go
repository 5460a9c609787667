// Package llmclient implements loop.ModelClient: a concrete client backed
// by a local Ollama chat endpoint, plus a deterministic in-memory stub used
// by tests.
//
// Uses ollama.ClientFromEnvironment()/ollama.Client.Chat(ctx, req, callback)
// for streaming, adapting its io.Writer-style sink to a (text, isPartial)
// return value.
package llmclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coderloop/coderloop/pkg/loop"
	ollama "github.com/ollama/ollama/api"
)

// OllamaClient implements loop.ModelClient against a local or remote Ollama
// server.
type OllamaClient struct {
	Model     string
	ServerURL string
	Timeout   time.Duration
}

// NewOllamaClient builds a client for model served at serverURL ("" uses
// the OLLAMA_HOST environment convention, matching ollama.ClientFromEnvironment).
func NewOllamaClient(model, serverURL string, timeout time.Duration) *OllamaClient {
	return &OllamaClient{Model: model, ServerURL: serverURL, Timeout: timeout}
}

func (c *OllamaClient) client() (*ollama.Client, error) {
	if c.ServerURL == "" {
		return ollama.ClientFromEnvironment()
	}
	base, err := url.Parse(c.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("parsing ollama server url %q: %w", c.ServerURL, err)
	}
	return ollama.NewClient(base, http.DefaultClient), nil
}

// Send implements loop.ModelClient. isPartial reflects whether Ollama's
// final streamed chunk carried DoneReason "length" — the model hit its
// output-token cap mid-response, which is exactly the upstream truncation
// the isPartialResponse flag exists to signal.
func (c *OllamaClient) Send(ctx context.Context, conv *loop.ConversationState) (string, bool, error) {
	cl, err := c.client()
	if err != nil {
		return "", false, err
	}

	messages := make([]ollama.Message, 0, len(conv.Transcript)+1)
	for _, m := range conv.Transcript {
		messages = append(messages, ollama.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, ollama.Message{Role: "user", Content: conv.NextRequest})

	cctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	req := &ollama.ChatRequest{
		Model:    c.Model,
		Messages: messages,
		Options: map[string]interface{}{
			"temperature": 0.1,
			"top_p":       0.9,
			"num_predict": 4096,
		},
	}

	var out strings.Builder
	partial := false
	err = cl.Chat(cctx, req, func(res ollama.ChatResponse) error {
		out.WriteString(res.Message.Content)
		if res.Done && res.DoneReason == "length" {
			partial = true
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("ollama chat failed: %w", err)
	}

	return out.String(), partial, nil
}
