package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/markusressel/fanhold/internal/engine"
	"github.com/markusressel/fanhold/internal/persistence"
)

const defaultClientTimeout = 5 * time.Second

// Client talks to the rest api of a running daemon.
type Client struct {
	baseUrl string
	http    *http.Client
}

func NewClient(host string, port int) *Client {
	return NewClientForUrl(fmt.Sprintf("http://%s:%d", host, port))
}

func NewClientForUrl(baseUrl string) *Client {
	return &Client{
		baseUrl: strings.TrimSuffix(baseUrl, "/"),
		http:    &http.Client{Timeout: defaultClientTimeout},
	}
}

func (c *Client) Status(ctx context.Context) (*engine.Snapshot, error) {
	result := &engine.Snapshot{}
	err := c.do(ctx, http.MethodGet, "/api/status/", nil, result)
	return result, err
}

func (c *Client) Changes(ctx context.Context) ([]engine.Change, error) {
	var result []engine.Change
	err := c.do(ctx, http.MethodGet, "/api/changes/", nil, &result)
	return result, err
}

func (c *Client) History(ctx context.Context, rangeName string) ([]persistence.Sample, error) {
	var result []persistence.Sample
	path := "/api/history/?" + url.Values{queryParamRange: []string{rangeName}}.Encode()
	err := c.do(ctx, http.MethodGet, path, nil, &result)
	return result, err
}

func (c *Client) SetOverride(ctx context.Context, request OverrideRequest) error {
	return c.do(ctx, http.MethodPost, "/api/override/", request, nil)
}

func (c *Client) ClearOverride(ctx context.Context, groupId string) error {
	return c.do(ctx, http.MethodDelete, "/api/override/"+url.PathEscape(groupId)+"/", nil, nil)
}

func (c *Client) Reload(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/reload/", nil, nil)
}

func (c *Client) do(ctx context.Context, method string, path string, body interface{}, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseUrl+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.http.Do(request)
	if err != nil {
		return fmt.Errorf("cannot reach fanhold api at %s: %w", c.baseUrl, err)
	}
	defer response.Body.Close()

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		failure := Result{}
		if json.Unmarshal(data, &failure) == nil && len(failure.Message) > 0 {
			return fmt.Errorf("%s (%d): %s", failure.Name, response.StatusCode, failure.Message)
		}
		return fmt.Errorf("unexpected status %d", response.StatusCode)
	}

	if result == nil {
		return nil
	}
	return json.Unmarshal(data, result)
}
