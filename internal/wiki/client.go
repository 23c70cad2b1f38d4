// Package wiki pushes a rendered snapshot of the board to a Confluence
// page via the v2 REST API.
package wiki

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"
)

var (
	ErrNotConfigured = errors.New("confluence settings not configured")
	ErrBadURL        = errors.New("could not parse confluence url")
)

// UpstreamError surfaces a non-2xx response from Confluence, details
// included, so the UI can show what the server said.
type UpstreamError struct {
	Op      string
	Status  int
	Details string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("confluence %s failed: status %d", e.Op, e.Status)
}

// Conflict reports whether the failure was a version conflict, i.e.
// somebody edited the page between our read and write.
func (e *UpstreamError) Conflict() bool { return e.Status == http.StatusConflict }

var (
	pageIDRes = []*regexp.Regexp{
		regexp.MustCompile(`/pages/edit-v2/(\d+)`),
		regexp.MustCompile(`pageId=(\d+)`),
		regexp.MustCompile(`/pages/(\d+)`),
	}
	baseURLRe = regexp.MustCompile(`^(https://[^/]+)`)
)

// ExtractPageID pulls the numeric page ID out of any of the URL shapes
// Confluence hands out (edit-v2, viewpage.action, direct).
func ExtractPageID(url string) (string, bool) {
	for _, re := range pageIDRes {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1], true
		}
	}
	return "", false
}

func ExtractBaseURL(url string) (string, bool) {
	if m := baseURLRe.FindStringSubmatch(url); m != nil {
		return m[1], true
	}
	return "", false
}

type Credentials struct {
	URL   string
	Email string
	Token string
}

func (c Credentials) complete() bool {
	return c.URL != "" && c.Email != "" && c.Token != ""
}

type Client struct {
	HTTPClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{HTTPClient: &http.Client{Timeout: timeout}}
}

type pageInfo struct {
	Title   string `json:"title"`
	Version struct {
		Number int `json:"number"`
	} `json:"version"`
}

// Sync replaces the page body with content. The page's current version
// is fetched first and incremented on write; a concurrent edit shows
// up as a conflict error rather than being overwritten blindly.
func (c *Client) Sync(ctx context.Context, creds Credentials, content string) error {
	if !creds.complete() {
		return ErrNotConfigured
	}
	pageID, ok := ExtractPageID(creds.URL)
	if !ok {
		return ErrBadURL
	}
	baseURL, ok := ExtractBaseURL(creds.URL)
	if !ok {
		return ErrBadURL
	}
	apiURL := fmt.Sprintf("%s/wiki/api/v2/pages/%s", baseURL, pageID)

	page, err := c.getPage(ctx, apiURL, creds)
	if err != nil {
		return err
	}
	title := page.Title
	if title == "" {
		title = "Crumbwise Export"
	}

	update := map[string]any{
		"id":     pageID,
		"status": "current",
		"title":  title,
		"body": map[string]any{
			"representation": "storage",
			"value":          content,
		},
		"version": map[string]any{
			"number": page.Version.Number + 1,
		},
	}
	return c.putPage(ctx, apiURL, creds, update)
}

func (c *Client) getPage(ctx context.Context, apiURL string, creds Credentials) (pageInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return pageInfo{}, err
	}
	req.SetBasicAuth(creds.Email, creds.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return pageInfo{}, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return pageInfo{}, &UpstreamError{Op: "get page", Status: resp.StatusCode, Details: readBody(resp.Body)}
	}
	var page pageInfo
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return pageInfo{}, fmt.Errorf("decode page: %w", err)
	}
	if page.Version.Number == 0 {
		page.Version.Number = 1
	}
	return page, nil
}

func (c *Client) putPage(ctx context.Context, apiURL string, creds Credentials, update map[string]any) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, apiURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.SetBasicAuth(creds.Email, creds.Token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("update page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &UpstreamError{Op: "update page", Status: resp.StatusCode, Details: readBody(resp.Body)}
	}
	return nil
}

func readBody(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 16<<10))
	return string(raw)
}
