package plextv

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime"
	"strings"

	"streampanel/internal/logging"
	"streampanel/internal/services"
)

const (
	productName    = "streampanel"
	productVersion = "0.1.0"
)

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client talks to the plex.tv control API and to individual servers using a
// bearer token carried in each ServerConfig.
type Client struct {
	baseURL string
	client  HTTPDoer
	logger  *slog.Logger
}

// NewClient constructs a client against the given plex.tv endpoint. The
// endpoint is configurable so tests can point it at a local server.
func NewClient(baseURL string, doer HTTPDoer, logger *slog.Logger) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  doer,
		logger:  logger.With(logging.String(logging.FieldComponent, "plextv")),
	}
}

// StatusError is returned for upstream responses with a failure status code.
// A not-found-class response matches services.ErrNotFound via errors.Is so
// callers can classify it without inspecting status text.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream returned %d", e.Code)
	}
	return fmt.Sprintf("upstream returned %d: %s", e.Code, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == services.ErrNotFound && e.Code == http.StatusNotFound
}

func (c *Client) doXML(ctx context.Context, operation, method, url, token string, out any) error {
	data, err := c.do(ctx, operation, method, url, token, nil)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := xml.Unmarshal(data, out); err != nil {
		return services.Wrap(services.ErrTransport, "plextv", operation, "decode response", err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, operation, method, url, token string, body any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return services.Wrap(services.ErrTransport, "plextv", operation, "marshal request body", err)
		}
		reader = bytes.NewReader(data)
	}
	_, err := c.do(ctx, operation, method, url, token, reader)
	return err
}

func (c *Client) do(ctx context.Context, operation, method, url, token string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransport, "plextv", operation, "build request", err)
	}
	req.Header.Set("Accept", "application/xml")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Plex-Token", token)
	applyStandardHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, "plextv", operation, "deadline exceeded", err)
		}
		return nil, services.Wrap(services.ErrTransport, "plextv", operation, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		trimmed := strings.TrimSpace(string(raw))
		if resp.StatusCode == http.StatusUnauthorized {
			return nil, services.Wrap(services.ErrTransport, "plextv", operation, "authentication rejected", &StatusError{Code: resp.StatusCode, Body: trimmed})
		}
		c.logger.Debug("upstream error status",
			logging.String("operation", operation),
			logging.Int("status", resp.StatusCode))
		return nil, &StatusError{Code: resp.StatusCode, Body: trimmed}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransport, "plextv", operation, "read response", err)
	}
	return data, nil
}

func applyStandardHeaders(req *http.Request) {
	req.Header.Set("X-Plex-Product", productName)
	req.Header.Set("X-Plex-Version", productVersion)
	req.Header.Set("X-Plex-Device-Name", productName)
	req.Header.Set("X-Plex-Platform", runtime.GOOS)
}

func (c *Client) plexTVPath(parts ...string) string {
	return c.baseURL + "/" + strings.Join(parts, "/")
}

func serverURL(server ServerConfig, path string) string {
	return strings.TrimRight(strings.TrimSpace(server.URL), "/") + path
}
