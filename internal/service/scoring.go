// internal/service/scoring.go
package service

import (
	"math"
	"time"

	"github.com/faworra/inbox-backend/internal/model"
)

// EngagementWindow is the trailing window whose message count feeds the
// engagement signal. Fixed, not per-team.
const EngagementWindow = 7 * 24 * time.Hour

// Qualification thresholds on the 0-100 score.
const (
	hotThreshold  = 70
	warmThreshold = 40
)

// ScoreInputs are the four signals the score is derived from. Now is injected
// so the recency decay is testable.
type ScoreInputs struct {
	MessageCount      int
	Channel           string
	LastInteractionAt *time.Time
	ManualScore       int
	Now               time.Time
}

// ComputeScore derives the 0-100 lead score and its qualification tier.
// Weighting: engagement and recency are the live signals (30%/25%), channel
// quality is a static prior (25%), manual input is a capped override (20%).
// Missing activity is not an error: engagement and recency both bottom out at
// zero, yielding a valid low score.
func ComputeScore(in ScoreInputs) (int, string) {
	engagement := float64(in.MessageCount * 10)
	if engagement > 100 {
		engagement = 100
	}

	weight := float64(channelWeight(in.Channel))

	recency := 0.0
	if in.LastInteractionAt != nil {
		days := in.Now.Sub(*in.LastInteractionAt).Hours() / 24
		recency = math.Max(100-days*5, 0)
	}

	manual := float64(in.ManualScore)
	if manual > 100 {
		manual = 100
	}
	if manual < 0 {
		manual = 0
	}

	total := engagement*0.30 + weight*0.25 + recency*0.25 + manual*0.20
	// Round half up; all terms are non-negative.
	score := int(math.Floor(total + 0.5))

	return score, Classify(score)
}

// Classify maps a score to its qualification tier.
func Classify(score int) string {
	switch {
	case score >= hotThreshold:
		return model.QualificationHot
	case score >= warmThreshold:
		return model.QualificationWarm
	default:
		return model.QualificationCold
	}
}

func channelWeight(channel string) int {
	switch channel {
	case model.ChannelWhatsApp:
		return 100
	case model.ChannelInstagram:
		return 70
	case model.ChannelTelegram:
		return 60
	case model.ChannelEmail:
		return 50
	default:
		return 50
	}
}
