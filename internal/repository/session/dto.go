package session

import (
	"time"

	"github.com/ingelean/leanbot/internal/domain/chat"
	"github.com/ingelean/leanbot/internal/domain/user"
)

// sessionDTO is the stored layout. Field names are part of the on-disk format.
type sessionDTO struct {
	DocID     int64        `json:"doc_id"`
	UserID    int64        `json:"user_id,omitempty"`
	ChatID    string       `json:"chat_id"`
	LocalChat bool         `json:"local_chat,omitempty"`
	Offline   []messageDTO `json:"offline,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

type messageDTO struct {
	Message   string    `json:"message"`
	Response  string    `json:"response,omitempty"`
	Score     *float64  `json:"score,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func fromDomain(s user.Session) sessionDTO {
	dto := sessionDTO{
		DocID:     int64(s.DocID),
		UserID:    s.UserID,
		ChatID:    s.ChatID,
		LocalChat: s.LocalChat,
		CreatedAt: s.CreatedAt,
	}
	for _, m := range s.Offline {
		dto.Offline = append(dto.Offline, messageDTO(m))
	}
	return dto
}

func (d sessionDTO) toDomain() user.Session {
	s := user.Session{
		DocID:     user.DocID(d.DocID),
		UserID:    d.UserID,
		ChatID:    d.ChatID,
		LocalChat: d.LocalChat,
		CreatedAt: d.CreatedAt,
	}
	for _, m := range d.Offline {
		s.Offline = append(s.Offline, chat.Message(m))
	}
	return s
}
