// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package probeclient

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"time"

	"github.com/bureau-foundation/probed/lib/clock"
	"github.com/bureau-foundation/probed/lib/netutil"
	"github.com/bureau-foundation/probed/lib/probe"
)

// DefaultTimeout bounds one request, including the server's gate wait.
const DefaultTimeout = 3 * time.Minute

// Options configures a Client.
type Options struct {
	// Timeout bounds each attempt. Defaults to DefaultTimeout, which
	// exceeds the server's default two-minute gate timeout.
	Timeout time.Duration

	// BusyRetries is how many times a 503 reply is retried.
	BusyRetries int

	// BusyBackoff is the pause before each retry. Defaults to one
	// second.
	BusyBackoff time.Duration

	// Clock paces retries. Defaults to clock.Real().
	Clock clock.Clock
}

// Client talks to one probe server.
type Client struct {
	address string
	http    *http.Client
	options Options
}

// Result is a successful read.
type Result struct {
	Body string

	// ContentType is the media type without parameters:
	// "text/plain" or "application/json".
	ContentType string
}

// IsJSON reports whether the server labelled the body as JSON.
func (r Result) IsJSON() bool { return r.ContentType == "application/json" }

// StatusError is a non-200 reply.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("probe server replied %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("probe server replied %d %s: %s", e.Status, http.StatusText(e.Status), e.Body)
}

// IsNotFound reports whether err is a 404 reply: the probe is not
// registered, or it had no value to read.
func IsNotFound(err error) bool { return hasStatus(err, http.StatusNotFound) }

// IsBusy reports whether err is a 503 reply.
func IsBusy(err error) bool { return hasStatus(err, http.StatusServiceUnavailable) }

func hasStatus(err error, status int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Status == status
}

// New returns a client for the probe server at address (host:port).
func New(address string, options Options) *Client {
	if options.Timeout <= 0 {
		options.Timeout = DefaultTimeout
	}
	if options.BusyBackoff <= 0 {
		options.BusyBackoff = time.Second
	}
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	return &Client{
		address: address,
		options: options,
		http: &http.Client{
			Timeout: options.Timeout,
			// The server closes every connection after one reply.
			Transport: &http.Transport{DisableKeepAlives: true},
		},
	}
}

// Read returns the current value of probe name.
func (c *Client) Read(ctx context.Context, name string) (Result, error) {
	if name == "" {
		return Result{}, errors.New("probe name is empty")
	}
	return c.do(ctx, "/"+url.PathEscape(name)+"/read")
}

// ReadValue reads probe name and parses the body as kind.
func (c *Client) ReadValue(ctx context.Context, name string, kind probe.Kind) (probe.Value, error) {
	result, err := c.Read(ctx, name)
	if err != nil {
		return probe.Value{}, err
	}
	value, err := probe.ParseValue(kind, result.Body)
	if err != nil {
		return probe.Value{}, fmt.Errorf("probe %q: %w", name, err)
	}
	return value, nil
}

// Write sends value to probe name. The protocol cannot carry an empty
// parameter, so an empty value is rejected without a request.
func (c *Client) Write(ctx context.Context, name, value string) error {
	if name == "" {
		return errors.New("probe name is empty")
	}
	if value == "" {
		return fmt.Errorf("cannot write an empty value to probe %q", name)
	}
	_, err := c.do(ctx, "/"+url.PathEscape(name)+"/write/"+url.PathEscape(value))
	return err
}

// WriteValue sends the text form of value to probe name.
func (c *Client) WriteValue(ctx context.Context, name string, value probe.Value) error {
	return c.Write(ctx, name, value.Text())
}

func (c *Client) do(ctx context.Context, path string) (Result, error) {
	for attempt := 0; ; attempt++ {
		result, err := c.once(ctx, path)
		if !IsBusy(err) || attempt >= c.options.BusyRetries {
			return result, err
		}
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-c.options.Clock.After(c.options.BusyBackoff):
		}
	}
}

func (c *Client) once(ctx context.Context, path string) (Result, error) {
	target, err := url.Parse("http://" + c.address + path)
	if err != nil {
		return Result{}, fmt.Errorf("building request URL: %w", err)
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return Result{}, err
	}

	response, err := c.http.Do(request)
	if err != nil {
		return Result{}, fmt.Errorf("requesting %s: %w", path, err)
	}
	defer response.Body.Close()

	body, err := netutil.ReadBody(response.Body)
	if err != nil {
		return Result{}, fmt.Errorf("reading reply to %s: %w", path, err)
	}
	if response.StatusCode != http.StatusOK {
		return Result{}, &StatusError{Status: response.StatusCode, Body: string(body)}
	}

	contentType, _, err := mime.ParseMediaType(response.Header.Get("Content-Type"))
	if err != nil {
		contentType = ""
	}
	return Result{Body: string(body), ContentType: contentType}, nil
}
