package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ingelean/leanbot/internal/domain/chat"
)

// flexScore accepts a JSON number, a numeric string or null.
type flexScore struct {
	v *float64
}

func (s *flexScore) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		s.v = nil
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return fmt.Errorf("decode score: %w", err)
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			s.v = nil
			return nil
		}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("decode score %q: %w", raw, err)
	}
	s.v = &f
	return nil
}

// timestampLayouts covers RFC 3339 and naive ISO-8601 as written by Python's isoformat.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// flexID accepts a JSON string or number.
type flexID string

func (i *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*i = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*i = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*i = flexID(n.String())
	return nil
}

type messageDTO struct {
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	Score     flexScore `json:"score"`
	Timestamp string    `json:"timestamp"`
}

func (m messageDTO) toDomain() chat.Message {
	return chat.Message{
		Message:   m.Message,
		Response:  m.Response,
		Score:     m.Score.v,
		Timestamp: parseTimestamp(m.Timestamp),
	}
}

func messagesToDomain(in []messageDTO) []chat.Message {
	out := make([]chat.Message, 0, len(in))
	for _, m := range in {
		out = append(out, m.toDomain())
	}
	return out
}

type sendMessageRequest struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type registerRequest struct {
	DocID int64 `json:"doc_id"`
}

type registerResponse struct {
	ID    flexID `json:"id"`
	DocID int64  `json:"doc_id"`
	Chat  struct {
		ID       flexID       `json:"id"`
		Mensajes []messageDTO `json:"mensajes"`
		Score    flexScore    `json:"score"`
	} `json:"chat"`
}

type historyResponse struct {
	Mensajes []messageDTO `json:"mensajes"`
}

type scoreResponse struct {
	Score flexScore `json:"score"`
}

type allChatsResponse struct {
	Chats []struct {
		DocID    *int64       `json:"doc_id"`
		Mensajes []messageDTO `json:"mensajes"`
		Score    flexScore    `json:"score"`
	} `json:"chats"`
}

type apiKeyRequest struct {
	APIKey string `json:"api_key"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	LeanBot string `json:"lean_bot"`
}

type rootResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
}
