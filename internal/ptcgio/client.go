// Package ptcgio is a client for the public TCG sets API, used to locate
// expansion logo and symbol artwork.
package ptcgio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ramonehamilton/PTCGO-Assets/internal/assets/download"
)

// DefaultBaseURL is the sets API root.
const DefaultBaseURL = "https://api.pokemontcg.io/v1"

// Client queries the sets API. Requests go through a download.Fetcher, which
// provides rate limiting and retries.
type Client struct {
	fetcher download.Fetcher
	baseURL string
}

// NewClient creates a client. An empty baseURL selects DefaultBaseURL.
func NewClient(fetcher download.Fetcher, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		fetcher: fetcher,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// GetSets retrieves the list of all sets.
func (c *Client) GetSets(ctx context.Context) (*SetList, error) {
	url := fmt.Sprintf("%s/sets", c.baseURL)

	var sets SetList
	if err := c.doRequest(ctx, url, &sets); err != nil {
		return nil, fmt.Errorf("failed to get sets: %w", err)
	}

	return &sets, nil
}

func (c *Client) doRequest(ctx context.Context, url string, result any) error {
	body, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return err
	}
	defer func() { _ = body.Close() }()

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}

	return nil
}
