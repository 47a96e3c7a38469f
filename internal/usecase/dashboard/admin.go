package dashboard

import (
	"math"
	"sort"
	"time"

	"github.com/ingelean/leanbot/internal/domain/chat"
	"github.com/ingelean/leanbot/internal/domain/sentiment"
)

// RecentChatsLimit is the number of chats listed in the admin overview.
const RecentChatsLimit = 10

// RecentChat is a row of the admin recent chats table.
type RecentChat struct {
	ChatID    string
	DocID     int64
	Messages  int
	Sentiment sentiment.Class
	LastAt    time.Time
	// Minutes between the first and last message, at least 1.
	DurationMinutes int
}

// Overview is the admin panel aggregate over every chat.
type Overview struct {
	TotalUsers    int
	TotalChats    int
	TotalMessages int
	// AvgSentiment is the mean score of scored messages as 0–100, 50 when none are scored.
	AvgSentiment int
	TopKeywords  []Keyword
	// Hourly is message activity per hour of day, normalized to the busiest hour.
	Hourly      [24]int
	RecentChats []RecentChat
	// Distribution splits RecentChats by dominant sentiment.
	Distribution Breakdown
}

// BuildOverview aggregates all chats. Hours are taken in now's location and now
// stands in for missing timestamps.
func BuildOverview(convs []chat.Conversation, now time.Time) Overview {
	o := Overview{TotalChats: len(convs), AvgSentiment: trendNeutral}

	users := make(map[int64]struct{})
	words := make(map[string]int)
	var hourly [24]int
	var scoreSum float64
	var scored int
	recent := make([]RecentChat, 0, len(convs))

	for _, c := range convs {
		users[c.DocID] = struct{}{}
		o.TotalMessages += len(c.Messages)

		for _, m := range c.Messages {
			if m.Score != nil && *m.Score != 0 {
				scoreSum += *m.Score
				scored++
			}
			if m.Message != "" {
				countKeywords(m.Message, words)
			}
			if !m.Timestamp.IsZero() {
				hourly[m.Timestamp.In(now.Location()).Hour()]++
			}
		}

		if len(c.Messages) > 0 {
			recent = append(recent, recentChat(c, now))
		}
	}

	o.TotalUsers = len(users)
	if scored > 0 {
		o.AvgSentiment = scorePercent(scoreSum / float64(scored))
	}
	o.TopKeywords = topKeywords(words, TopKeywordsLimit)
	o.Hourly = normalizeHourly(hourly)

	sort.SliceStable(recent, func(i, j int) bool { return recent[i].LastAt.After(recent[j].LastAt) })
	if len(recent) > RecentChatsLimit {
		recent = recent[:RecentChatsLimit]
	}
	o.RecentChats = recent
	o.Distribution = distribution(recent)
	return o
}

func recentChat(c chat.Conversation, now time.Time) RecentChat {
	scores := make([]float64, len(c.Messages))
	for i, m := range c.Messages {
		scores[i] = m.ScoreOrNeutral()
	}
	return RecentChat{
		ChatID:          c.ChatID,
		DocID:           c.DocID,
		Messages:        len(c.Messages),
		Sentiment:       sentiment.Dominant(scores),
		LastAt:          orNow(c.Messages[len(c.Messages)-1].Timestamp, now),
		DurationMinutes: durationMinutes(c.Messages, now),
	}
}

func durationMinutes(msgs []chat.Message, now time.Time) int {
	if len(msgs) < 2 {
		return 1
	}
	first := orNow(msgs[0].Timestamp, now)
	last := orNow(msgs[len(msgs)-1].Timestamp, now)
	return max(1, int(math.Round(last.Sub(first).Minutes())))
}

func orNow(t, now time.Time) time.Time {
	if t.IsZero() {
		return now
	}
	return t
}

func normalizeHourly(counts [24]int) [24]int {
	var out [24]int
	peak := 0
	for _, c := range counts {
		peak = max(peak, c)
	}
	if peak == 0 {
		return out
	}
	for h, c := range counts {
		out[h] = percent(c, peak)
	}
	return out
}

func distribution(chats []RecentChat) Breakdown {
	var pos, neu, neg int
	for _, c := range chats {
		switch c.Sentiment {
		case sentiment.Positive:
			pos++
		case sentiment.Negative:
			neg++
		default:
			neu++
		}
	}
	total := max(len(chats), 1)
	return Breakdown{
		Positive: percent(pos, total),
		Neutral:  percent(neu, total),
		Negative: percent(neg, total),
	}
}
