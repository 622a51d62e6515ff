package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/domain"
	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/repo"
)

// PermissionGate restricts replies to statuses originating from allow-listed servers
type PermissionGate struct {
	pattern *regexp.Regexp // nil when the allow-list is empty
}

// NewPermissionGate compiles the allow-list into one anchored alternation.
// Entries are regular expression fragments; blank entries are ignored.
func NewPermissionGate(allowlist []string) (*PermissionGate, error) {
	var entries []string
	for _, e := range allowlist {
		if e = strings.TrimSpace(e); e != "" {
			entries = append(entries, e)
		}
	}
	if len(entries) == 0 {
		return &PermissionGate{}, nil
	}

	pattern, err := regexp.Compile(`^(?:` + strings.Join(entries, "|") + `)`)
	if err != nil {
		return nil, fmt.Errorf("compile allow-list: %w", err)
	}
	return &PermissionGate{pattern: pattern}, nil
}

// Allowed reports whether originURI matches the allow-list from its start
func (g *PermissionGate) Allowed(originURI string) bool {
	return g.pattern != nil && g.pattern.MatchString(originURI)
}

// Check returns Pass or RejectOrigin
func (g *PermissionGate) Check(originURI string) domain.Verdict {
	if !g.Allowed(originURI) {
		return domain.RejectOrigin
	}
	return domain.Pass
}

// CheckFanOut rejects mentions that address anyone besides the bot
func CheckFanOut(mentionCount int) domain.Verdict {
	if mentionCount > 1 {
		return domain.RejectFanOut
	}
	return domain.Pass
}

// RateGate enforces a per-requester cooldown between accepted questions
type RateGate struct {
	questionRepo repo.QuestionRepo
	cooldown     time.Duration
	now          func() time.Time
}

// NewRateGate creates a new rate gate
func NewRateGate(questionRepo repo.QuestionRepo, cooldown time.Duration, now func() time.Time) *RateGate {
	if now == nil {
		now = time.Now
	}
	return &RateGate{
		questionRepo: questionRepo,
		cooldown:     cooldown,
		now:          now,
	}
}

// Check returns Pass or RejectCooldown for a requester
func (g *RateGate) Check(ctx context.Context, requesterID string) (domain.Verdict, error) {
	last, err := g.questionRepo.LastAskedAt(ctx, requesterID)
	if err != nil {
		return domain.RejectCooldown, fmt.Errorf("get last post time: %w", err)
	}
	if !CooldownElapsed(last, g.now(), g.cooldown) {
		return domain.RejectCooldown, nil
	}
	return domain.Pass, nil
}

// CooldownElapsed reports whether now is strictly past last+cooldown.
// A nil last means the requester never posted.
func CooldownElapsed(last *time.Time, now time.Time, cooldown time.Duration) bool {
	if last == nil {
		return true
	}
	return now.After(last.Add(cooldown))
}

// ContentGate rejects questions the bot will not forward to the backend
type ContentGate struct{}

// NewContentGate creates a new content gate
func NewContentGate() *ContentGate {
	return &ContentGate{}
}

// Evaluate checks for an empty question first, then for embedded links.
// The bot's own mention accounts for one link in the raw body.
func (g *ContentGate) Evaluate(questionText, rawBody string) domain.Verdict {
	if isBlank(questionText) {
		return domain.RejectEmptyQuestion
	}
	if CountLinks(rawBody) > 1 {
		return domain.RejectContainsLink
	}
	return domain.Pass
}

func isBlank(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// CostGate suspends generation once the day's spend passes the ceiling
type CostGate struct {
	questionRepo repo.QuestionRepo
	ceiling      decimal.Decimal
	now          func() time.Time
}

// NewCostGate creates a new cost gate
func NewCostGate(questionRepo repo.QuestionRepo, ceiling decimal.Decimal, now func() time.Time) *CostGate {
	if now == nil {
		now = time.Now
	}
	return &CostGate{
		questionRepo: questionRepo,
		ceiling:      ceiling,
		now:          now,
	}
}

// Ceiling returns the configured daily ceiling
func (g *CostGate) Ceiling() decimal.Decimal {
	return g.ceiling
}

// DailyCost re-reads today's aggregate spend. It is never cached: other
// instances may be writing to the same store.
func (g *CostGate) DailyCost(ctx context.Context) (decimal.Decimal, error) {
	from, to := DayBounds(g.now())
	cost, err := g.questionRepo.DailyCost(ctx, from, to)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get daily cost: %w", err)
	}
	return cost, nil
}

// Check reads today's spend and evaluates it against the ceiling
func (g *CostGate) Check(ctx context.Context) (domain.Verdict, decimal.Decimal, error) {
	cost, err := g.DailyCost(ctx)
	if err != nil {
		return domain.RejectOverLimit, decimal.Zero, err
	}
	return EvaluateCost(cost, g.ceiling), cost, nil
}

// EvaluateCost returns RejectOverLimit when dailyCost is strictly above ceiling
func EvaluateCost(dailyCost, ceiling decimal.Decimal) domain.Verdict {
	if dailyCost.GreaterThan(ceiling) {
		return domain.RejectOverLimit
	}
	return domain.Pass
}

// DayBounds returns local midnight of t's day and the following midnight
func DayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}
