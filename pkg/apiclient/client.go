// Package apiclient talks to a remote annotation backend over its REST API.
package apiclient

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

	"catatbuku/internal/annotation/controller"
	"catatbuku/internal/annotation/model"
)

var _ controller.Persistence = (*Client)(nil)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) FetchIdeas(ctx context.Context, docID string) ([]model.Idea, error) {
	var rows []model.IdeaResponse
	if err := c.do(ctx, http.MethodGet, "/api/ideas/?post="+url.QueryEscape(docID), nil, &rows); err != nil {
		return nil, fmt.Errorf("failed to fetch ideas: %w", err)
	}
	ideas := make([]model.Idea, 0, len(rows))
	for _, r := range rows {
		ideas = append(ideas, r.Idea())
	}
	return ideas, nil
}

func (c *Client) CreateIdea(ctx context.Context, docID string, paragraphID int, quote, note string) (*model.Idea, error) {
	req := model.IdeaRequest{PostID: docID, ParagraphID: paragraphID, Quote: quote, Note: note}
	var resp model.IdeaResponse
	if err := c.do(ctx, http.MethodPost, "/api/ideas/", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to create idea: %w", err)
	}
	idea := resp.Idea()
	return &idea, nil
}

func (c *Client) UpdateIdea(ctx context.Context, id, quote, note string) error {
	req := model.UpdateIdeaRequest{Quote: quote, Note: note}
	if err := c.do(ctx, http.MethodPut, "/api/ideas/"+url.PathEscape(id)+"/", req, nil); err != nil {
		return fmt.Errorf("failed to update idea: %w", err)
	}
	return nil
}

func (c *Client) DeleteIdea(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/ideas/"+url.PathEscape(id)+"/", nil, nil); err != nil {
		return fmt.Errorf("failed to delete idea: %w", err)
	}
	return nil
}

func (c *Client) FetchUnderlines(ctx context.Context, docID string) ([]model.Underline, error) {
	var rows []model.UnderlineResponse
	if err := c.do(ctx, http.MethodGet, "/api/underlines/?post="+url.QueryEscape(docID), nil, &rows); err != nil {
		return nil, fmt.Errorf("failed to fetch underlines: %w", err)
	}
	underlines := make([]model.Underline, 0, len(rows))
	for _, r := range rows {
		underlines = append(underlines, r.Underline())
	}
	return underlines, nil
}

func (c *Client) CreateUnderline(ctx context.Context, docID string, paragraphID int, text string, startOffset, endOffset int) (*model.Underline, error) {
	req := model.UnderlineRequest{
		PostID:      docID,
		ParagraphID: paragraphID,
		Text:        text,
		StartOffset: startOffset,
		EndOffset:   endOffset,
	}
	var resp model.UnderlineResponse
	if err := c.do(ctx, http.MethodPost, "/api/underlines/", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to create underline: %w", err)
	}
	u := resp.Underline()
	return &u, nil
}

func (c *Client) DeleteUnderline(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/underlines/"+url.PathEscape(id)+"/", nil, nil); err != nil {
		return fmt.Errorf("failed to delete underline: %w", err)
	}
	return nil
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return e.Status
	}
	return e.Status + ": " + e.Body
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Status: resp.Status, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
