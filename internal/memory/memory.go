// Package memory holds the two tiers of conversational state: transient
// per-session context destroyed at session end, and persistent
// per-customer context that survives between sessions.
package memory

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fincoach/coach/internal/guardrails"
)

// HistoryWindow caps the turns fed to the narrator.
const HistoryWindow = 10

// MaxSessionSummaries caps rolling summaries, most recent wins.
const MaxSessionSummaries = 5

// GoalStatus is a goal's lifecycle state.
type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalAchieved  GoalStatus = "achieved"
	GoalCancelled GoalStatus = "cancelled"
)

// GoalRecord is a customer-stated financial goal.
type GoalRecord struct {
	ID           string          `json:"goal_id"`
	Description  string          `json:"description"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	TargetDate   *time.Time      `json:"target_date,omitempty"`
	Status       GoalStatus      `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CustomerMemory is the persistent customer context.
type CustomerMemory struct {
	CustomerID          string            `json:"customer_id"`
	Name                string            `json:"name"`
	Goals               []GoalRecord      `json:"goals"`
	Preferences         map[string]string `json:"preferences"`
	LastHealthScore     *int              `json:"last_health_score,omitempty"`
	LastHealthScoreDate *time.Time        `json:"last_health_score_date,omitempty"`
	SessionSummaries    []string          `json:"session_summaries"`
	ConversationCount   int               `json:"conversation_count"`
}

// NewCustomerMemory returns an empty memory for a customer.
func NewCustomerMemory(customerID, name string) *CustomerMemory {
	return &CustomerMemory{
		CustomerID:  customerID,
		Name:        name,
		Preferences: make(map[string]string),
	}
}

// goalStopwords are generic goal-speak that carries no topic signal.
var goalStopwords = map[string]bool{
	"fund": true, "goal": true, "save": true, "saving": true,
	"savings": true, "money": true, "plan": true, "with": true,
	"this": true, "that": true, "from": true, "some": true,
}

// goalKeywords extracts the topic-bearing words of a description.
func goalKeywords(description string) map[string]bool {
	keywords := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(description)) {
		word = strings.Trim(word, ".,!?:;'\"")
		if len(word) < 4 || goalStopwords[word] {
			continue
		}
		keywords[word] = true
	}
	return keywords
}

func goalsOverlap(a, b string) bool {
	ka, kb := goalKeywords(a), goalKeywords(b)
	for word := range ka {
		if kb[word] {
			return true
		}
	}
	return false
}

// UpsertGoal records a goal, deduplicating against existing active
// goals by topic keywords rather than exact text, so "holiday fund" and
// "saving for a holiday" update one record. On merge the longer, more
// specific description wins and the newest numeric target overwrites.
func (m *CustomerMemory) UpsertGoal(description string, target decimal.Decimal, targetDate *time.Time, now time.Time) *GoalRecord {
	for i := range m.Goals {
		g := &m.Goals[i]
		if g.Status != GoalActive || !goalsOverlap(g.Description, description) {
			continue
		}
		if len(description) > len(g.Description) {
			g.Description = description
		}
		if target.IsPositive() {
			g.TargetAmount = target
		}
		if targetDate != nil {
			g.TargetDate = targetDate
		}
		g.UpdatedAt = now
		return g
	}

	m.Goals = append(m.Goals, GoalRecord{
		ID:           fmt.Sprintf("GOAL_%03d", len(m.Goals)+1),
		Description:  description,
		TargetAmount: target,
		TargetDate:   targetDate,
		Status:       GoalActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	return &m.Goals[len(m.Goals)-1]
}

// ActiveGoals returns the goals still being pursued.
func (m *CustomerMemory) ActiveGoals() []GoalRecord {
	var out []GoalRecord
	for _, g := range m.Goals {
		if g.Status == GoalActive {
			out = append(out, g)
		}
	}
	return out
}

// RecordHealthScore stores the latest computed score and when.
func (m *CustomerMemory) RecordHealthScore(score int, when time.Time) {
	m.LastHealthScore = &score
	m.LastHealthScoreDate = &when
}

// AddSessionSummary appends a rolling summary, evicting the oldest once
// the cap is reached.
func (m *CustomerMemory) AddSessionSummary(summary string) {
	m.SessionSummaries = append(m.SessionSummaries, summary)
	if len(m.SessionSummaries) > MaxSessionSummaries {
		m.SessionSummaries = m.SessionSummaries[len(m.SessionSummaries)-MaxSessionSummaries:]
	}
}

// Turn is one message in a conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chart is a render-ready visualisation built straight from tool output,
// so the client never has to parse figures back out of narration.
type Chart struct {
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Labels    []string  `json:"labels"`
	Values    []float64 `json:"values,omitempty"`
	MaxValues []float64 `json:"max_values,omitempty"`
	Income    []float64 `json:"income,omitempty"`
	Spend     []float64 `json:"spend,omitempty"`
}

// SessionMemory is per-conversation state. It is owned by exactly one
// session; concurrent sessions never share an instance.
type SessionMemory struct {
	SessionID  string
	CustomerID string
	Messages   []Turn
	Grounded   *guardrails.Registry
	ToolCalls  []string
	Chart      *Chart
	CreatedAt  time.Time
}

// NewSessionMemory returns fresh state for one conversation.
func NewSessionMemory(sessionID, customerID string, now time.Time) *SessionMemory {
	return &SessionMemory{
		SessionID:  sessionID,
		CustomerID: customerID,
		Grounded:   guardrails.NewRegistry(),
		CreatedAt:  now,
	}
}

// AddMessage appends a turn to the full transcript.
func (s *SessionMemory) AddMessage(role, content string) {
	s.Messages = append(s.Messages, Turn{Role: role, Content: content})
}

// History returns the trailing window fed to the narrator.
func (s *SessionMemory) History() []Turn {
	if len(s.Messages) <= HistoryWindow {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-HistoryWindow:]
}

// RecordToolCall appends to the audit trail of tools run this session.
func (s *SessionMemory) RecordToolCall(name string) {
	s.ToolCalls = append(s.ToolCalls, name)
}
