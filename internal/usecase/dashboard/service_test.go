package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ingelean/leanbot/internal/domain"
	"github.com/ingelean/leanbot/internal/domain/chat"
	"github.com/ingelean/leanbot/internal/domain/user"
)

type mockBackend struct {
	history  []chat.Message
	histErr  error
	chats    []chat.Conversation
	chatsErr error
	score    *float64
	scoreErr error
	scoreFor string
	calls    int
}

func (m *mockBackend) History(_ context.Context, _ user.DocID) ([]chat.Message, error) {
	m.calls++
	return m.history, m.histErr
}

func (m *mockBackend) AllChats(_ context.Context) ([]chat.Conversation, error) {
	m.calls++
	return m.chats, m.chatsErr
}

func (m *mockBackend) ChatScore(_ context.Context, chatID string) (*float64, error) {
	m.scoreFor = chatID
	return m.score, m.scoreErr
}

type mockSessions struct {
	sess user.Session
	err  error
}

func (m *mockSessions) Get(_ context.Context, _ user.DocID) (user.Session, error) {
	return m.sess, m.err
}

type availability bool

func (a availability) Available() bool { return bool(a) }

type mockTranscript struct {
	msgs []chat.Message
	err  error
}

func (m *mockTranscript) Offline(_ context.Context, _ user.DocID) ([]chat.Message, error) {
	return m.msgs, m.err
}

func clock() time.Time { return now }

func TestService_User_Backend(t *testing.T) {
	backend := &mockBackend{history: []chat.Message{{Score: score(9), Timestamp: at(18, 8, 0)}}}
	svc := New(backend, availability(true), &mockTranscript{}, nil).WithClock(clock)

	d, err := svc.User(context.Background(), 42)

	require.NoError(t, err)
	assert.False(t, d.Offline)
	assert.Equal(t, 1, d.TotalMessages)
	assert.Equal(t, 90, d.Trend[TrendDays-1].Percent)
}

func TestService_User_FallsBackToTranscript(t *testing.T) {
	tests := []struct {
		name    string
		backend *mockBackend
		avail   availability
	}{
		{"backend error", &mockBackend{histErr: domain.ErrBackendUnavailable}, true},
		{"backend down", &mockBackend{history: []chat.Message{{}, {}, {}}}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			transcript := &mockTranscript{msgs: []chat.Message{{Score: score(2), Timestamp: at(17, 8, 0)}}}
			svc := New(tc.backend, tc.avail, transcript, nil).WithClock(clock)

			d, err := svc.User(context.Background(), 42)

			require.NoError(t, err)
			assert.True(t, d.Offline)
			assert.Equal(t, 1, d.TotalMessages)
			assert.Equal(t, 100, d.Sentiment.Negative)
		})
	}
}

func TestService_User_TranscriptError(t *testing.T) {
	svc := New(nil, nil, &mockTranscript{err: domain.ErrSessionNotFound}, nil).WithClock(clock)

	_, err := svc.User(context.Background(), 42)

	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestService_User_NoSources(t *testing.T) {
	svc := New(nil, nil, nil, nil).WithClock(clock)

	d, err := svc.User(context.Background(), 42)

	require.NoError(t, err)
	assert.True(t, d.Offline)
	assert.Zero(t, d.TotalMessages)
	assert.Len(t, d.Trend, TrendDays)
}

func TestService_Overview(t *testing.T) {
	backend := &mockBackend{chats: sampleChats()}
	svc := New(backend, availability(true), nil, nil).WithClock(clock)

	o, err := svc.Overview(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4, o.TotalChats)
	assert.Equal(t, 3, o.TotalUsers)
}

func TestService_Overview_BackendDown(t *testing.T) {
	backend := &mockBackend{chats: sampleChats()}
	svc := New(backend, availability(false), nil, nil)

	_, err := svc.Overview(context.Background())

	require.ErrorIs(t, err, domain.ErrBackendUnavailable)
	assert.Zero(t, backend.calls)
}

func TestService_Overview_BackendError(t *testing.T) {
	boom := errors.New("boom")
	svc := New(&mockBackend{chatsErr: boom}, availability(true), nil, nil)

	_, err := svc.Overview(context.Background())

	require.ErrorIs(t, err, boom)
}

func TestService_User_ChatScore(t *testing.T) {
	backend := &mockBackend{score: score(7.5)}
	svc := New(backend, availability(true), nil, nil).
		WithClock(clock).
		WithSessions(&mockSessions{sess: user.Session{DocID: 42, ChatID: "chat-9"}})

	d, err := svc.User(context.Background(), 42)

	require.NoError(t, err)
	require.NotNil(t, d.ChatScore)
	assert.InDelta(t, 7.5, *d.ChatScore, 1e-9)
	assert.Equal(t, "chat-9", backend.scoreFor)
}

func TestService_User_ChatScoreSkippedForLocalChat(t *testing.T) {
	backend := &mockBackend{score: score(7.5)}
	svc := New(backend, availability(true), nil, nil).
		WithClock(clock).
		WithSessions(&mockSessions{sess: user.Session{DocID: 42, ChatID: "local-1", LocalChat: true}})

	d, err := svc.User(context.Background(), 42)

	require.NoError(t, err)
	assert.Nil(t, d.ChatScore)
	assert.Empty(t, backend.scoreFor)
}

func TestService_User_ChatScoreErrorIgnored(t *testing.T) {
	backend := &mockBackend{scoreErr: errors.New("boom")}
	svc := New(backend, availability(true), nil, nil).
		WithClock(clock).
		WithSessions(&mockSessions{sess: user.Session{DocID: 42, ChatID: "chat-9"}})

	d, err := svc.User(context.Background(), 42)

	require.NoError(t, err)
	assert.Nil(t, d.ChatScore)
}
