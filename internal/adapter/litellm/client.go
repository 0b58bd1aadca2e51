// Package litellm talks to the LiteLLM proxy: chat completions through its
// OpenAI-compatible endpoint and health checks through the admin API.
package litellm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/Strob0t/ActionForge/internal/port/llm"
	"github.com/Strob0t/ActionForge/internal/resilience"
)

// ErrEmptyCompletion is returned when the model answers without text.
var ErrEmptyCompletion = errors.New("empty completion")

// ChatClient implements llm.Completer against LiteLLM.
type ChatClient struct {
	client    openai.Client
	model     string
	maxTokens int
	breaker   *resilience.Breaker
	key       func() string
}

var _ llm.Completer = (*ChatClient)(nil)

// NewChatClient creates a completion client. maxTokens is the default
// applied when a prompt does not set its own.
func NewChatClient(baseURL, masterKey, model string, maxTokens int, breaker *resilience.Breaker) *ChatClient {
	opts := []option.RequestOption{
		option.WithBaseURL(strings.TrimRight(baseURL, "/") + "/v1/"),
		option.WithMaxRetries(0),
	}
	if masterKey != "" {
		opts = append(opts, option.WithAPIKey(masterKey))
	} else {
		opts = append(opts, option.WithAPIKey("sk-none"))
	}
	return &ChatClient{
		client:    openai.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
		breaker:   breaker,
	}
}

// SetKeySource makes every request authenticate with the current value of
// key. An empty value falls back to the key given at construction.
func (c *ChatClient) SetKeySource(key func() string) {
	c.key = key
}

// Complete returns the trimmed assistant text for p.
func (c *ChatClient) Complete(ctx context.Context, p llm.Prompt) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
	}
	if p.System != "" {
		params.Messages = append(params.Messages, openai.SystemMessage(p.System))
	}
	params.Messages = append(params.Messages, openai.UserMessage(p.User))
	if n := cmpOr(p.MaxTokens, c.maxTokens); n > 0 {
		params.MaxCompletionTokens = openai.Int(int64(n))
	}
	if p.Temperature > 0 {
		params.Temperature = openai.Float(p.Temperature)
	}

	var text string
	call := func(ctx context.Context) error {
		var opts []option.RequestOption
		if c.key != nil {
			if k := c.key(); k != "" {
				opts = append(opts, option.WithAPIKey(k))
			}
		}
		resp, err := c.client.Chat.Completions.New(ctx, params, opts...)
		if err != nil {
			return fmt.Errorf("chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return ErrEmptyCompletion
		}
		text = strings.TrimSpace(resp.Choices[0].Message.Content)
		if text == "" {
			return ErrEmptyCompletion
		}
		return nil
	}

	var err error
	if c.breaker != nil {
		err = c.breaker.Do(ctx, call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", err
	}
	return text, nil
}

func cmpOr(a, b int) int {
	if a > 0 {
		return a
	}
	return b
}

// AdminClient checks the proxy's liveness endpoint.
type AdminClient struct {
	baseURL    string
	masterKey  string
	httpClient *http.Client
}

// NewAdminClient creates a new LiteLLM admin client.
func NewAdminClient(baseURL, masterKey string) *AdminClient {
	return &AdminClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		masterKey:  masterKey,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// Health reports whether LiteLLM answers its liveliness probe.
func (c *AdminClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health/liveliness", http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.masterKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.masterKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("litellm health: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("litellm health %d: %s", resp.StatusCode, body)
	}
	return nil
}
