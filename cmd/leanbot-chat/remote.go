package main

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

	chiapi "github.com/ingelean/leanbot/internal/transport/chi"
)

// remoteBot drives the gateway's REST API.
type remoteBot struct {
	base   string
	docID  string
	apiKey string
	http   *http.Client
}

func newRemoteBot(server, docID, apiKey string, timeout time.Duration) *remoteBot {
	return &remoteBot{
		base:   strings.TrimRight(server, "/"),
		docID:  strings.TrimSpace(docID),
		apiKey: apiKey,
		http:   &http.Client{Timeout: timeout},
	}
}

// Login opens a session for the document id.
func (r *remoteBot) Login(ctx context.Context) (chiapi.SessionResponse, error) {
	var sess chiapi.SessionResponse
	err := r.do(ctx, http.MethodPost, "/api/v1/sessions", chiapi.CreateSessionRequest{DocID: r.docID}, &sess)
	return sess, err
}

func (r *remoteBot) Reply(ctx context.Context, text string) (reply, error) {
	var resp chiapi.ReplyResponse
	path := "/api/v1/chats/" + url.PathEscape(r.docID) + "/messages"
	if err := r.do(ctx, http.MethodPost, path, chiapi.SendMessageRequest{Message: text}, &resp); err != nil {
		return reply{}, err
	}
	return reply{Text: resp.Text, Source: resp.Source}, nil
}

// Close ends the session.
func (r *remoteBot) Close(ctx context.Context) error {
	return r.do(ctx, http.MethodDelete, "/api/v1/sessions/"+url.PathEscape(r.docID), nil, nil)
}

func (r *remoteBot) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.base+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr chiapi.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Message != "" {
			return fmt.Errorf("%s (%s)", apiErr.Message, apiErr.Code)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
