package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const apiURL = "https://api.github.com"

// Client is a minimal GitHub REST client for the repository commands.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// New creates a client. An empty token leaves the client unauthenticated;
// commands then answer with a setup hint instead of failing.
func New(token string) *Client {
	return &Client{
		token:   token,
		baseURL: apiURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Authenticated reports whether a token is configured.
func (c *Client) Authenticated() bool { return c.token != "" }

type repo struct {
	Name      string `json:"name"`
	Private   bool   `json:"private"`
	Stars     int    `json:"stargazers_count"`
	Language  string `json:"language"`
	UpdatedAt string `json:"updated_at"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("github request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("github error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// ListRepos returns a user-facing summary of the most recently updated
// repositories.
func (c *Client) ListRepos(ctx context.Context, limit int) (string, error) {
	if limit <= 0 {
		limit = 10
	}
	var repos []repo
	path := fmt.Sprintf("/user/repos?per_page=%d&sort=updated", limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &repos); err != nil {
		return "", err
	}

	if len(repos) == 0 {
		return "You have no repositories, sir.", nil
	}

	var sb strings.Builder
	sb.WriteString("Your repositories, sir:\n")
	for _, r := range repos {
		sb.WriteString("- " + r.Name)
		if r.Private {
			sb.WriteString(" (private)")
		}
		if r.Language != "" {
			sb.WriteString(" [" + r.Language + "]")
		}
		if r.Stars > 0 {
			fmt.Fprintf(&sb, " ⭐%d", r.Stars)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

// CreateRepo creates a private repository and returns a confirmation.
func (c *Client) CreateRepo(ctx context.Context, name string) (string, error) {
	payload := map[string]any{
		"name":    name,
		"private": true,
	}
	var created struct {
		FullName string `json:"full_name"`
		HTMLURL  string `json:"html_url"`
	}
	if err := c.do(ctx, http.MethodPost, "/user/repos", payload, &created); err != nil {
		return "", err
	}
	return fmt.Sprintf("Repository %s created, sir. %s", created.FullName, created.HTMLURL), nil
}
