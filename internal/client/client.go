// Package client is a typed proxy for the users HTTP API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/wichananm65/user-service/internal/user"
)

const defaultTimeout = 5 * time.Second

// APIError is returned for every non-2xx response. It unwraps to
// user.ErrNotFound for 404 and user.ErrInvalidArgument for 400.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("users api: status %d: %v", e.StatusCode, e.Fields)
	}
	return fmt.Sprintf("users api: status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case fiber.StatusNotFound:
		return user.ErrNotFound
	case fiber.StatusBadRequest:
		return user.ErrInvalidArgument
	}
	return nil
}

type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *fiber.Client
}

type Option func(*Client)

// WithToken sends token as a bearer credential on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New returns a client for the users resource rooted at baseURL, for
// example http://localhost:8080/api/v1/users.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: defaultTimeout,
		http:    &fiber.Client{UserAgent: "userctl"},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) FetchUsers(ctx context.Context, gender string) ([]user.User, error) {
	agent := c.http.Get(c.baseURL)
	if gender != "" {
		agent.QueryString("gender=" + url.QueryEscape(gender))
	}

	var users []user.User
	if err := c.do(ctx, agent, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) FetchUser(ctx context.Context, id uuid.UUID) (user.User, error) {
	var u user.User
	if err := c.do(ctx, c.http.Get(c.baseURL+"/"+id.String()), &u); err != nil {
		return user.User{}, err
	}
	return u, nil
}

// InsertUser creates u and returns it as stored, including the identifier
// the server minted when u had none.
func (c *Client) InsertUser(ctx context.Context, u user.User) (user.User, error) {
	var created user.User
	if err := c.do(ctx, c.http.Post(c.baseURL).JSON(u), &created); err != nil {
		return user.User{}, err
	}
	return created, nil
}

func (c *Client) UpdateUser(ctx context.Context, u user.User) (user.User, error) {
	var updated user.User
	if err := c.do(ctx, c.http.Put(c.baseURL).JSON(u), &updated); err != nil {
		return user.User{}, err
	}
	return updated, nil
}

func (c *Client) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, c.http.Delete(c.baseURL+"/"+id.String()), nil)
}

type response struct {
	code int
	body []byte
	errs []error
}

// do sends the request prepared on agent and decodes a 2xx body into out.
// The agent is always released.
func (c *Client) do(ctx context.Context, agent *fiber.Agent, out any) error {
	if err := ctx.Err(); err != nil {
		fiber.ReleaseAgent(agent)
		return err
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	agent.Timeout(timeout)
	if c.token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+c.token)
	}

	// fasthttp cannot abort a request, so a canceled ctx returns early and
	// leaves the request to finish or time out in the background.
	done := make(chan response, 1)
	go func() {
		var r response
		r.code, r.body, r.errs = agent.Bytes()
		done <- r
	}()

	var r response
	select {
	case <-ctx.Done():
		return ctx.Err()
	case r = <-done:
	}
	code, body := r.code, r.body
	if len(r.errs) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fmt.Errorf("users api: %w", r.errs[0])
	}

	if code < 200 || code > 299 {
		return decodeError(code, body)
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("users api: decode response: %w", err)
	}
	return nil
}

func decodeError(code int, body []byte) error {
	apiErr := &APIError{StatusCode: code}
	var payload struct {
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Message = payload.Message
		apiErr.Fields = payload.Errors
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}
