package fbapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// resourcesPrefix is the listing endpoint; the resource path follows it.
const resourcesPrefix = "/api/resources"

// Resource is a file or directory as returned by the resources endpoint.
// Directories carry their children in Items; children never carry Items.
type Resource struct {
	Path      string     `json:"path"`
	Name      string     `json:"name"`
	Size      int64      `json:"size"`
	Extension string     `json:"extension"`
	Modified  time.Time  `json:"modified"`
	IsDir     bool       `json:"isDir"`
	IsSymlink bool       `json:"isSymlink"`
	Type      string     `json:"type"`
	Items     []Resource `json:"items,omitempty"`
	NumDirs   int        `json:"numDirs"`
	NumFiles  int        `json:"numFiles"`
}

// CleanPath normalizes a user-supplied resource path: NFC-normalized, one
// leading slash, no trailing slash (except for the root "/").
func CleanPath(p string) string {
	p = norm.NFC.String(strings.TrimSpace(p))
	p = "/" + strings.Trim(p, "/")

	return p
}

// escapePath percent-encodes each segment so names containing "?", "#" or
// "%" survive the round trip.
func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}

	return strings.Join(segments, "/")
}

// Resource fetches the resource at path. Directories include their listing.
func (c *Client) Resource(ctx context.Context, path string) (*Resource, error) {
	clean := CleanPath(path)

	resp, err := c.Do(ctx, http.MethodGet, resourcesPrefix+escapePath(clean), nil)
	if err != nil {
		return nil, fmt.Errorf("fbapi: fetching %s: %w", clean, err)
	}
	defer resp.Body.Close()

	var r Resource
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("fbapi: decoding resource %s: %w", clean, err)
	}

	if r.Path == "" {
		r.Path = clean
	}

	return &r, nil
}
