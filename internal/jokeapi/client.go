package jokeapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	DefaultBaseURL = "https://v2.jokeapi.dev"
	DefaultTimeout = 5 * time.Second
)

// Client fetches jokes from JokeAPI. It is safe for concurrent use.
type Client struct {
	baseURL string
	timeout time.Duration
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

// JokeURL returns the safe-mode endpoint for a category.
func (c *Client) JokeURL(category string) string {
	return fmt.Sprintf("%s/joke/%s?safe-mode", c.baseURL, url.PathEscape(category))
}

// Fetch issues a single request for one joke in category. An API-level
// error body (unknown category, no matches) is returned as a Joke whose
// Text is Fallback, together with a non-nil error describing it.
func (c *Client) Fetch(ctx context.Context, category string) (Joke, error) {
	if err := ctx.Err(); err != nil {
		return Joke{}, err
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		left := time.Until(deadline)
		if left <= 0 {
			return Joke{}, context.DeadlineExceeded
		}
		if left < timeout {
			timeout = left
		}
	}

	agent := fiber.Get(c.JokeURL(category))
	agent.Timeout(timeout)
	if err := agent.Parse(); err != nil {
		return Joke{}, fmt.Errorf("failed to build joke request: %w", err)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return Joke{}, fmt.Errorf("failed to fetch joke: %w", errors.Join(errs...))
	}
	if code != fiber.StatusOK {
		return Joke{}, fmt.Errorf("joke api returned status %d", code)
	}

	joke, err := Decode(body)
	if err != nil {
		return Joke{}, fmt.Errorf("failed to decode joke: %w", err)
	}
	if joke.Error {
		return joke, fmt.Errorf("joke api error: %s", joke.Message)
	}
	return joke, nil
}
