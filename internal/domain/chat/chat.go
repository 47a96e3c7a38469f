package chat

import "time"

// Source identifies which responder produced a reply.
type Source string

const (
	// SourceBackend is a reply from the remote LEAN BOT backend.
	SourceBackend Source = "backend"
	// SourceIntent is a canned reply for greetings, farewells, thanks or help.
	SourceIntent Source = "intent"
	// SourceCorpus is an answer taken from the FAQ corpus.
	SourceCorpus Source = "corpus"
	// SourceLLM is an answer generated by the external LLM.
	SourceLLM Source = "llm"
	// SourceStatic is the fixed technical-difficulty message.
	SourceStatic Source = "static"
)

// IsFallback reports whether the reply was produced without the remote backend.
func (s Source) IsFallback() bool { return s != SourceBackend }

// NeutralScore is the score assumed for messages the backend never scored.
const NeutralScore = 5.0

// Message is one exchange: the user's message and the bot's response.
type Message struct {
	Message   string    `json:"message"`
	Response  string    `json:"response,omitempty"`
	Score     *float64  `json:"score,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ScoreOrNeutral returns the message score, or NeutralScore when unscored.
// A zero score counts as unscored.
func (m Message) ScoreOrNeutral() float64 {
	if m.Score == nil || *m.Score == 0 {
		return NeutralScore
	}
	return *m.Score
}

// Reply is the bot answer to a single user message. Question and Matched are
// set only for corpus replies.
type Reply struct {
	Text       string
	Source     Source
	Score      *float64
	Similarity float64
	Question   string
	Matched    bool
	Timestamp  time.Time
}

// Conversation is a chat as listed by the admin endpoint of the backend.
type Conversation struct {
	ChatID   string
	DocID    int64
	Messages []Message
	Score    *float64
}

// LLMStatus is the outcome of probing the language model behind the bot.
type LLMStatus struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	// Via names who answered the probe: "backend" or "direct".
	Via string `json:"via"`
}
