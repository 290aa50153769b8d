// internal/judge/judge.go
// Package: judge
package judge

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mwiater/gollamabench/internal/logging"
)

// MinScore and MaxScore bound every available rating.
const (
	MinScore = 1.0
	MaxScore = 10.0
)

// PromptTemplate embeds the candidate answer with %s.
const PromptTemplate = "Rate the following answer for accuracy and clarity on a scale of 1 to 10:\n\n%s\n\nScore:"

// Error is a failed rating: either the judge call failed or its reply did not
// start with a number.
type Error struct {
	Reply string
	Err   error
}

func (e *Error) Error() string {
	if e.Reply != "" {
		return fmt.Sprintf("judge failed on reply %q: %v", truncate(e.Reply, 40), e.Err)
	}
	return fmt.Sprintf("judge failed: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Rater rates a generated answer on a 1 to 10 scale.
type Rater interface {
	Rate(ctx context.Context, text string) (float64, error)
}

// Chatter is the chat capability the judge needs.
type Chatter interface {
	ChatText(ctx context.Context, model, prompt string) (string, error)
}

// ChatJudge rates answers by asking a fixed judge model.
type ChatJudge struct {
	Chat  Chatter
	Model string
}

// NewChatJudge returns a judge that asks model through chat.
func NewChatJudge(chat Chatter, model string) *ChatJudge {
	return &ChatJudge{Chat: chat, Model: model}
}

// Rate sends the rating prompt and parses the reply with ParseScore.
func (j *ChatJudge) Rate(ctx context.Context, text string) (float64, error) {
	reply, err := j.Chat.ChatText(ctx, j.Model, fmt.Sprintf(PromptTemplate, text))
	if err != nil {
		return 0, &Error{Err: err}
	}
	return ParseScore(reply)
}

// ParseScore reads the first whitespace-delimited token of reply as a float and
// clamps it into [1,10]. A reply such as "Score: 8" is rejected.
func ParseScore(reply string) (float64, error) {
	fields := strings.Fields(reply)
	if len(fields) == 0 {
		return 0, &Error{Reply: reply, Err: errors.New("empty reply")}
	}
	// Only decimal spellings count; ParseFloat also takes hex floats like 0x1p3.
	if strings.ContainsAny(fields[0], "xX") {
		return 0, &Error{Reply: reply, Err: fmt.Errorf("score %q is not a decimal number", fields[0])}
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, &Error{Reply: reply, Err: err}
	}
	if math.IsNaN(v) {
		return 0, &Error{Reply: reply, Err: errors.New("score is NaN")}
	}
	return Clamp(v), nil
}

// Clamp bounds v to [MinScore, MaxScore].
func Clamp(v float64) float64 {
	return math.Min(math.Max(v, MinScore), MaxScore)
}

// Evaluate rates text and maps any failure to Unavailable. It never returns
// an error.
func Evaluate(ctx context.Context, r Rater, text string) Score {
	v, err := r.Rate(ctx, text)
	if err != nil {
		logging.Logger.Warn("quality judge failed", "error", err)
		return Unavailable
	}
	if math.IsNaN(v) {
		logging.Logger.Warn("quality judge returned NaN")
		return Unavailable
	}
	return Available(Clamp(v))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
