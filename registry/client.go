package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/openstats/sdmx/sdmxerrors"
	"github.com/openstats/sdmx/xmlreader"
)

// ClientConfig holds the settings of the HTTP registry client.
type ClientConfig struct {
	BaseURL     string
	HTTPTimeout time.Duration
	RetryMax    int
}

// Client fetches structural payloads from an SDMX registry over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient builds a registry client. The underlying transport retries
// transient failures; non-2xx registry responses are never retried and
// surface as RegistryError.
func NewClient(config ClientConfig, log zerolog.Logger) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("registry base URL is required")
	}
	if config.HTTPTimeout == 0 {
		config.HTTPTimeout = 30 * time.Second
	}
	if config.RetryMax == 0 {
		config.RetryMax = 3
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = config.RetryMax
	retryClient.HTTPClient = &http.Client{Timeout: config.HTTPTimeout}
	retryClient.Logger = nil

	return &Client{
		baseURL:    strings.TrimSuffix(config.BaseURL, "/"),
		httpClient: retryClient.StandardClient(),
		log:        log,
	}, nil
}

// Fetch retrieves the payload for the query.
func (c *Client) Fetch(ctx context.Context, query Query) ([]byte, error) {
	uri, err := c.queryURL(query)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.sdmx.structure+xml;version=2.1")

	c.log.Debug().Str("url", uri).Msg("Fetching structural artefact")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, registryError(resp.StatusCode, body)
	}
	return body, nil
}

func (c *Client) queryURL(query Query) (string, error) {
	if query.Agency == "" || query.ID == "" {
		return "", fmt.Errorf("registry query requires agency and id")
	}
	version := query.Version
	if version == "" {
		version = "latest"
	}
	uri := fmt.Sprintf("%s/structure/%s/%s/%s/%s", c.baseURL, query.Resource, query.Agency, query.ID, version)

	params := url.Values{}
	if query.References != "" {
		params.Set("references", query.References)
	}
	if query.Detail != "" {
		params.Set("detail", query.Detail)
	}
	if len(params) > 0 {
		uri += "?" + params.Encode()
	}
	return uri, nil
}

// registryError prefers the structured SDMX error payload when the body
// carries one, falling back to the raw body as title.
func registryError(status int, body []byte) error {
	if _, readErr := xmlreader.Read(body, xmlreader.Options{Mode: xmlreader.ModeError}); readErr != nil {
		var regErr *sdmxerrors.RegistryError
		if errors.As(readErr, &regErr) {
			return regErr
		}
	}
	title := strings.TrimSpace(string(body))
	if len(title) > 200 {
		title = title[:200]
	}
	return &sdmxerrors.RegistryError{Status: status, Title: title}
}
