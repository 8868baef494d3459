// Package agent orchestrates one coaching conversation turn: input guard,
// deterministic tool execution, narration, output guard, disclaimer. The
// narrator is never asked to compute anything; every figure it can cite is
// produced by a tool in this package and registered as grounded first.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fincoach/coach/internal/analytics"
	"github.com/fincoach/coach/internal/budget"
	"github.com/fincoach/coach/internal/domain"
	"github.com/fincoach/coach/internal/guardrails"
	"github.com/fincoach/coach/internal/handoff"
	"github.com/fincoach/coach/internal/knowledge"
	"github.com/fincoach/coach/internal/lifeevent"
	"github.com/fincoach/coach/internal/memory"
	"github.com/fincoach/coach/internal/money"
	"github.com/fincoach/coach/internal/narrator"
)

// FailOpenResponse is returned when narration cannot produce a groundable
// answer even after a forced retry. The turn degrades, it never errors
// out to the customer.
const FailOpenResponse = "I'm having trouble retrieving your data right now. " +
	"Please try again or contact support."

// forcedRetryNote steers the retry narration back onto verified figures.
const forcedRetryNote = "Your previous answer cited figures that were not retrieved from " +
	"the customer's data. Answer again using ONLY the verified data below."

// TransactionSource supplies a customer's ordered transaction history.
// Implementations are the in-process demo profile and the BigQuery reader.
type TransactionSource interface {
	Profile(ctx context.Context, customerID string) (*domain.CustomerProfile, error)
}

// Reply is the outcome of one conversation turn. Chart is present only
// when the turn's tool output has a natural visual shape.
type Reply struct {
	Text      string        `json:"reply"`
	SessionID string        `json:"session_id"`
	ToolTrace []string      `json:"tool_trace"`
	Chart     *memory.Chart `json:"chart,omitempty"`
}

// Config wires the agent's collaborators. All fields except Clock are
// required.
type Config struct {
	Sessions     memory.SessionStore
	Customers    memory.CustomerStore
	Transactions TransactionSource
	Narrator     narrator.Narrator
	Knowledge    *knowledge.Base
	Logger       zerolog.Logger
	Clock        func() time.Time
}

// Agent runs guarded coaching turns against one set of stores.
type Agent struct {
	sessions     memory.SessionStore
	customers    memory.CustomerStore
	transactions TransactionSource
	narrator     narrator.Narrator
	knowledge    *knowledge.Base
	detector     *lifeevent.Detector
	planner      *budget.Planner
	handoffs     *handoff.Builder
	log          zerolog.Logger
	now          func() time.Time
}

// New creates an Agent from its collaborators.
func New(cfg Config) (*Agent, error) {
	switch {
	case cfg.Sessions == nil:
		return nil, fmt.Errorf("agent: session store is required")
	case cfg.Customers == nil:
		return nil, fmt.Errorf("agent: customer store is required")
	case cfg.Transactions == nil:
		return nil, fmt.Errorf("agent: transaction source is required")
	case cfg.Narrator == nil:
		return nil, fmt.Errorf("agent: narrator is required")
	}

	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	kb := cfg.Knowledge
	if kb == nil {
		kb = knowledge.NewBase()
	}

	return &Agent{
		sessions:     cfg.Sessions,
		customers:    cfg.Customers,
		transactions: cfg.Transactions,
		narrator:     cfg.Narrator,
		knowledge:    kb,
		detector:     lifeevent.New(lifeevent.WithClock(now)),
		planner:      budget.NewPlanner(budget.WithClock(now)),
		handoffs:     handoff.New(handoff.WithClock(now)),
		log:          cfg.Logger,
		now:          now,
	}, nil
}

// StartSession opens a conversation for a customer and returns its id.
func (a *Agent) StartSession(ctx context.Context, customerID, name string) (string, error) {
	if customerID == "" {
		return "", fmt.Errorf("agent: customer ID is required")
	}
	if _, err := a.customers.GetOrCreate(ctx, customerID, name); err != nil {
		return "", fmt.Errorf("agent: ensure customer memory: %w", err)
	}
	sessionID := uuid.NewString()
	if _, err := a.sessions.Create(ctx, sessionID, customerID); err != nil {
		return "", fmt.Errorf("agent: create session: %w", err)
	}
	return sessionID, nil
}

// Chat processes one customer message and returns a grounded, guardrailed
// response. Unknown sessions and empty input are the caller's error;
// everything downstream of the input guard degrades instead of failing.
func (a *Agent) Chat(ctx context.Context, sessionID, message string) (Reply, error) {
	if sessionID == "" {
		return Reply{}, fmt.Errorf("agent: session ID is required")
	}
	if message == "" {
		return Reply{}, fmt.Errorf("agent: message is required")
	}

	sess, err := a.sessions.Get(ctx, sessionID)
	if err != nil {
		return Reply{}, fmt.Errorf("agent: %w", err)
	}

	// Input guard runs before anything is recorded or retrieved.
	if decision := guardrails.CheckInput(message); decision.Result != guardrails.Pass {
		a.log.Info().
			Str("session_id", sessionID).
			Str("intent", string(decision.Intent)).
			Str("reason", decision.Reason).
			Msg("input guard intercepted message")
		return Reply{Text: decision.SafeResponse, SessionID: sessionID, ToolTrace: trace(sess)}, nil
	}

	profile, err := a.transactions.Profile(ctx, sess.CustomerID)
	if err != nil {
		return Reply{}, fmt.Errorf("agent: load transactions: %w", err)
	}

	cust, err := a.customers.GetOrCreate(ctx, sess.CustomerID, profile.Name)
	if err != nil {
		// Memory is an enhancement, not a dependency of the turn.
		a.log.Warn().Err(err).Str("customer_id", sess.CustomerID).Msg("customer memory unavailable")
		cust = nil
	}

	history := sess.History()
	sess.AddMessage("user", message)

	tc := toolContext{
		engine:   analytics.NewEngine(profile, analytics.WithClock(a.now)),
		profile:  profile,
		customer: cust,
	}

	facts := a.executeTools(tc, sess, cust, message)

	req := narrator.Request{History: history, Facts: facts, Message: message}
	text, nerr := a.narrate(ctx, req)
	if nerr != nil {
		a.log.Error().Err(nerr).Str("session_id", sessionID).Msg("narration failed after retry")
		text = FailOpenResponse
	}

	// Output guard: a blocked narration gets one forced retry anchored on
	// fresh spending insights, then the turn fails open.
	if out := guardrails.CheckOutput(text, sess.Grounded); out.Result != guardrails.Pass {
		a.log.Warn().
			Str("session_id", sessionID).
			Str("reason", out.Reason).
			Msg("output guard blocked narration")
		text = a.forcedRetry(ctx, tc, sess, history, message)
	}

	text = guardrails.ApplyDisclaimer(text)
	sess.AddMessage("assistant", text)
	a.persistCustomer(ctx, cust)

	return Reply{Text: text, SessionID: sessionID, ToolTrace: trace(sess), Chart: sess.Chart}, nil
}

// executeTools picks and runs the deterministic tool(s) for the turn and
// registers every produced amount as grounded. Life-event mentions always
// run the detector first so narration speaks from transaction evidence.
func (a *Agent) executeTools(tc toolContext, sess *memory.SessionMemory, cust *memory.CustomerMemory, message string) []byte {
	r := route(message)
	sess.Chart = nil

	if lifeEventTriggers.MatchString(message) {
		result := a.lifeEventFacts(tc)
		sess.RecordToolCall(string(toolLifeEvents))
		if n, ok := result.Facts["events_detected"].(int); ok && n > 0 {
			payload := a.registerFacts(sess, result)
			// Evidence strings embed amounts mid-sentence; ground them
			// all, plus a sentinel so the registry is never empty after
			// a confirmed scan.
			sess.Grounded.Add(money.CurrencyPattern.FindAllString(string(payload), -1)...)
			sess.Grounded.Add("£0.00")
			return payload
		}
	}

	// Handoff needs the session transcript, so it bypasses the plain
	// tool dispatch.
	if r.Tool == toolHandoff {
		result := a.handoffFacts(tc, sess, message)
		sess.RecordToolCall(string(toolHandoff))
		return a.registerFacts(sess, result)
	}

	if r.Tool == toolBudget && cust != nil {
		a.captureGoal(cust, r, message)
	}

	result := a.runTool(tc, r, message)
	sess.RecordToolCall(string(r.Tool))
	sess.Chart = buildChart(r.Tool, result.Facts)

	if result.HealthScore != nil && cust != nil {
		cust.RecordHealthScore(*result.HealthScore, a.now())
	}

	return a.registerFacts(sess, result)
}

// registerFacts serialises a tool result and grounds its exact amounts.
func (a *Agent) registerFacts(sess *memory.SessionMemory, result toolResult) []byte {
	payload, err := json.Marshal(result.Facts)
	if err != nil {
		a.log.Error().Err(err).Msg("marshal tool facts")
		return []byte(`{"error": "tool result could not be serialised"}`)
	}
	sess.Grounded.Add(guardrails.ExtractAmountsJSON(payload)...)
	sess.Grounded.Add(result.Grounds...)
	return payload
}

// captureGoal records a stated savings goal before the budget tool runs,
// so the plan it builds already funds it.
func (a *Agent) captureGoal(cust *memory.CustomerMemory, r routing, message string) {
	if len(r.Amounts) == 0 {
		return
	}
	if goalMention.MatchString(message) {
		cust.UpsertGoal(message, r.Amounts[0], nil, a.now())
	}
}

// narrate calls the narrator, retrying once on failure.
func (a *Agent) narrate(ctx context.Context, req narrator.Request) (string, error) {
	text, err := a.narrator.Narrate(ctx, req)
	if err == nil {
		return text, nil
	}
	a.log.Warn().Err(err).Msg("narration failed, retrying once")
	return a.narrator.Narrate(ctx, req)
}

// forcedRetry re-narrates against fresh spending insights after an output
// guard block. If the retry is blocked too, the turn fails open.
func (a *Agent) forcedRetry(ctx context.Context, tc toolContext, sess *memory.SessionMemory, history []memory.Turn, message string) string {
	result := a.insightsFacts(tc, defaultAnalysisMonths)
	sess.RecordToolCall(string(toolInsights))
	payload := a.registerFacts(sess, result)

	req := narrator.Request{
		History: history,
		Facts:   payload,
		Message: forcedRetryNote + "\n\n" + message,
	}
	text, err := a.narrate(ctx, req)
	if err != nil {
		return FailOpenResponse
	}
	if out := guardrails.CheckOutput(text, sess.Grounded); out.Result != guardrails.Pass {
		return FailOpenResponse
	}
	return text
}

// persistCustomer writes customer memory back, logging failures and moving
// on: losing a memory update never loses the turn.
func (a *Agent) persistCustomer(ctx context.Context, cust *memory.CustomerMemory) {
	if cust == nil {
		return
	}
	cust.ConversationCount++
	if err := a.customers.Save(ctx, cust); err != nil {
		a.log.Warn().Err(err).Str("customer_id", cust.CustomerID).Msg("persist customer memory")
	}
}

// ProactiveSummary generates an unprompted monthly money summary, used for
// push notifications and in-app nudges.
func (a *Agent) ProactiveSummary(ctx context.Context, sessionID string) (Reply, error) {
	return a.Chat(ctx, sessionID, "Give me a brief monthly money summary: key highlights "+
		"from my spending and one actionable tip I can use this month.")
}

func trace(sess *memory.SessionMemory) []string {
	return append([]string(nil), sess.ToolCalls...)
}
