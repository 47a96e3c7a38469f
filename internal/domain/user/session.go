package user

import (
	"time"

	"github.com/ingelean/leanbot/internal/domain/chat"
)

// Session is the per-user state kept by the gateway between messages.
type Session struct {
	DocID  DocID  `json:"doc_id"`
	UserID int64  `json:"user_id,omitempty"`
	ChatID string `json:"chat_id"`
	// LocalChat is set when the chat id was generated locally because the
	// backend could not register the user.
	LocalChat bool           `json:"local_chat,omitempty"`
	Offline   []chat.Message `json:"offline,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Registration is the backend's answer to a user registration.
type Registration struct {
	UserID   int64
	DocID    DocID
	ChatID   string
	Messages []chat.Message
	Score    *float64
}
