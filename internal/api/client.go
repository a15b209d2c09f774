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

	"lawcode-cli/internal/model"
)

const DefaultTimeout = 30 * time.Second

// Client talks to the legal code CRUD service.
type Client struct {
	baseURL    string
	token      string
	locale     string
	httpClient *http.Client
}

type Options struct {
	BaseURL string
	Token   string
	Locale  string
	// Timeout bounds each request. Zero disables the client-side timeout.
	Timeout time.Duration
	// HTTPClient overrides the transport (tests).
	HTTPClient *http.Client
}

func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		token:      strings.TrimSpace(opts.Token),
		locale:     strings.TrimSpace(opts.Locale),
		httpClient: hc,
	}
}

// WithLocale returns a client that forwards a different Accept-Language.
func (c *Client) WithLocale(locale string) *Client {
	cp := *c
	cp.locale = strings.TrimSpace(locale)
	return &cp
}

// ListSections fetches every section with its chapters nested. When withArticles is set the
// server also nests each chapter's articles.
func (c *Client) ListSections(ctx context.Context, withArticles bool) ([]model.Section, error) {
	include := "chapters"
	if withArticles {
		include = "chapters,articles"
	}
	var out []model.Section
	if err := c.do(ctx, http.MethodGet, "/sections?include="+url.QueryEscape(include), nil, &out); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	if out == nil {
		out = []model.Section{}
	}
	return out, nil
}

func (c *Client) ListArticles(ctx context.Context, chapterID string) ([]model.Article, error) {
	chapterID = strings.TrimSpace(chapterID)
	var out []model.Article
	if err := c.do(ctx, http.MethodGet, "/chapters/"+url.PathEscape(chapterID)+"/articles", nil, &out); err != nil {
		return nil, fmt.Errorf("list articles for %s: %w", chapterID, err)
	}
	if out == nil {
		out = []model.Article{}
	}
	return out, nil
}

func (c *Client) CreateSection(ctx context.Context, in model.SectionInput) (model.Section, error) {
	var out model.Section
	if err := c.do(ctx, http.MethodPost, "/sections", in, &out); err != nil {
		return model.Section{}, fmt.Errorf("create section: %w", err)
	}
	return out, nil
}

func (c *Client) UpdateSection(ctx context.Context, id string, in model.SectionInput) (model.Section, error) {
	var out model.Section
	if err := c.do(ctx, http.MethodPut, "/sections/"+url.PathEscape(strings.TrimSpace(id)), in, &out); err != nil {
		return model.Section{}, fmt.Errorf("update section %s: %w", id, err)
	}
	return out, nil
}

func (c *Client) DeleteSection(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/sections/"+url.PathEscape(strings.TrimSpace(id)), nil, nil); err != nil {
		return fmt.Errorf("delete section %s: %w", id, err)
	}
	return nil
}

func (c *Client) CreateChapter(ctx context.Context, in model.ChapterInput) (model.Chapter, error) {
	var out model.Chapter
	if err := c.do(ctx, http.MethodPost, "/chapters", in, &out); err != nil {
		return model.Chapter{}, fmt.Errorf("create chapter: %w", err)
	}
	return out, nil
}

// UpdateChapter sends a partial update; only non-nil patch fields are serialized.
func (c *Client) UpdateChapter(ctx context.Context, id string, patch model.ChapterPatch) (model.Chapter, error) {
	var out model.Chapter
	if err := c.do(ctx, http.MethodPut, "/chapters/"+url.PathEscape(strings.TrimSpace(id)), patch, &out); err != nil {
		return model.Chapter{}, fmt.Errorf("update chapter %s: %w", id, err)
	}
	return out, nil
}

func (c *Client) DeleteChapter(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/chapters/"+url.PathEscape(strings.TrimSpace(id)), nil, nil); err != nil {
		return fmt.Errorf("delete chapter %s: %w", id, err)
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) do(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.locale != "" {
		req.Header.Set("Accept-Language", c.locale)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
	default:
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
