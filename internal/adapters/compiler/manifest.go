package compiler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/trebuchet-org/solplay/internal/domain"
)

// manifest is the shape of a solc-bin list.json
type manifest struct {
	Builds   []domain.BuildDescriptor `json:"builds"`
	Releases map[string]string        `json:"releases"`
	Latest   string                   `json:"latestRelease"`
}

// ManifestFetcher retrieves the public list of compiler builds
type ManifestFetcher struct {
	url    string
	client *http.Client
}

// NewManifestFetcher creates a fetcher for the list.json at url
func NewManifestFetcher(url string) *ManifestFetcher {
	return &ManifestFetcher{
		url:    url,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Fetch downloads and parses the manifest
func (f *ManifestFetcher) Fetch(ctx context.Context) ([]domain.BuildDescriptor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "solplay")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("manifest server returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m manifest
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("parse manifest JSON: %w", err)
	}
	if m.Builds == nil {
		return nil, fmt.Errorf("invalid manifest: missing builds field")
	}

	return m.Builds, nil
}
