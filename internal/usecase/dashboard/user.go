package dashboard

import (
	"math"
	"time"

	"github.com/ingelean/leanbot/internal/domain/chat"
	"github.com/ingelean/leanbot/internal/domain/sentiment"
)

// TrendDays is the length of the user sentiment trend.
const TrendDays = 7

// trendNeutral is the trend value for a day without messages.
const trendNeutral = 50

var weekdayLabels = [7]string{"Dom", "Lun", "Mar", "Mié", "Jue", "Vie", "Sáb"}

// Breakdown holds rounded sentiment percentages.
type Breakdown struct {
	Positive int
	Neutral  int
	Negative int
}

// TrendPoint is the average sentiment of one calendar day, as a 0–100 percent.
type TrendPoint struct {
	Day     string // YYYY-MM-DD
	Label   string
	Percent int
}

// UserDashboard summarizes the chat history of a single user.
type UserDashboard struct {
	TotalMessages int
	Sentiment     Breakdown
	Trend         []TrendPoint
	// ChatScore is the backend's aggregate score of the user's chat, nil when unknown.
	ChatScore *float64
	// Offline is true when the data came from the local transcript.
	Offline bool
}

// BuildUser aggregates a user history. Unscored messages count as neutral.
// Days are calendar days in now's location; the trend ends on now's day.
func BuildUser(msgs []chat.Message, now time.Time) UserDashboard {
	d := UserDashboard{TotalMessages: len(msgs)}

	var pos, neu, neg int
	days := make(map[string][]float64)
	for _, m := range msgs {
		score := m.ScoreOrNeutral()
		switch sentiment.FromScore(score) {
		case sentiment.Positive:
			pos++
		case sentiment.Neutral:
			neu++
		default:
			neg++
		}
		if !m.Timestamp.IsZero() {
			key := dayKey(m.Timestamp.In(now.Location()))
			days[key] = append(days[key], score)
		}
	}
	if len(msgs) > 0 {
		d.Sentiment = Breakdown{
			Positive: percent(pos, len(msgs)),
			Neutral:  percent(neu, len(msgs)),
			Negative: percent(neg, len(msgs)),
		}
	}

	d.Trend = make([]TrendPoint, 0, TrendDays)
	for i := TrendDays - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		key := dayKey(day)
		p := TrendPoint{Day: key, Label: weekdayLabels[day.Weekday()], Percent: trendNeutral}
		if scores, ok := days[key]; ok {
			p.Percent = scorePercent(mean(scores))
		}
		d.Trend = append(d.Trend, p)
	}
	return d
}

func dayKey(t time.Time) string { return t.Format(time.DateOnly) }

// percent returns round(n/total*100); total must be positive.
func percent(n, total int) int {
	return int(math.Round(float64(n) / float64(total) * 100))
}

// scorePercent maps a 0–10 score to 0–100.
func scorePercent(score float64) int {
	return int(math.Round(score / 10 * 100))
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
