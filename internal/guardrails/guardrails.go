// Package guardrails is the safety layer around narration: an input
// classifier run before any message reaches the narrator, a grounding
// registry of verified monetary figures, an output verifier that blocks
// narration citing money no tool produced, and a disclaimer injector.
//
// The agent provides information and guidance only, never regulated
// financial advice under FSMA 2000. Specific product recommendations
// route to a qualified adviser.
package guardrails

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/fincoach/coach/internal/money"
)

// Result is the classifier verdict.
type Result string

const (
	Pass     Result = "pass"
	Block    Result = "block"
	Redirect Result = "redirect"
)

// Intent labels why the classifier decided what it did.
type Intent string

const (
	IntentGeneralQuery    Intent = "general_query"
	IntentRegulatedAdvice Intent = "regulated_advice"
	IntentOutOfScope      Intent = "out_of_scope"
)

// Decision carries the verdict plus a pre-canned response when the
// message never reaches the narrator.
type Decision struct {
	Result       Result `json:"result"`
	Intent       Intent `json:"intent"`
	Reason       string `json:"reason"`
	SafeResponse string `json:"safe_response,omitempty"`
}

// DistressResponse signposts free, confidential debt support.
const DistressResponse = "I'm sorry to hear you're going through a difficult time. " +
	"Before we look at your finances together, I want to make sure you know about some " +
	"**free, confidential support** that's available to you:\n\n" +
	"- **MoneyHelper** (free & impartial): 0800 138 7777 | moneyhelper.org.uk\n" +
	"- **StepChange Debt Charity**: 0800 138 1111 | stepchange.org\n" +
	"- **National Debtline**: 0808 808 4000 | nationaldebtline.org\n\n" +
	"These services are completely free and can help with debt advice, budgeting and " +
	"negotiating with creditors. Would you still like me to look at your transaction data " +
	"to help identify where we can make improvements?"

// AdviserResponse redirects regulated-advice requests.
const AdviserResponse = "That's a great question, but it falls into regulated financial " +
	"advice territory which I can't provide. I can connect you with one of our qualified " +
	"financial advisers who can give you a personalised recommendation. Would you like me " +
	"to arrange that?"

// ScopeResponse reminds the customer what the coach covers.
const ScopeResponse = "I'm your financial coach, so I can only help with questions about " +
	"your money, spending, savings and financial wellbeing. Is there something about your " +
	"finances I can help you with today?"

// CheckInput classifies a raw message before the narrator sees it.
// Families are checked in strict priority order: distress, then
// regulated advice, then out-of-scope. The financial allowlist
// suppresses out-of-scope matches entirely.
func CheckInput(message string) Decision {
	for _, p := range distressPatterns {
		if p.MatchString(message) {
			return Decision{
				Result:       Redirect,
				Intent:       IntentGeneralQuery,
				Reason:       "Message indicates potential financial distress.",
				SafeResponse: DistressResponse,
			}
		}
	}

	for _, p := range regulatedAdvicePatterns {
		if p.MatchString(message) {
			return Decision{
				Result:       Redirect,
				Intent:       IntentRegulatedAdvice,
				Reason:       "Message requests regulated financial advice.",
				SafeResponse: AdviserResponse,
			}
		}
	}

	financial := false
	for _, p := range financialAllowlist {
		if p.MatchString(message) {
			financial = true
			break
		}
	}
	if !financial {
		for _, p := range outOfScopePatterns {
			if p.match.MatchString(message) && (p.unless == nil || !p.unless.MatchString(message)) {
				return Decision{
					Result:       Block,
					Intent:       IntentOutOfScope,
					Reason:       "Message is outside financial coaching scope.",
					SafeResponse: ScopeResponse,
				}
			}
		}
	}

	return Decision{
		Result: Pass,
		Intent: IntentGeneralQuery,
		Reason: "Message passed all input checks.",
	}
}

// Registry accumulates the currency strings produced by tool calls in
// one session. The output guard only needs to know whether any tool
// ran, so membership is never checked against narrator output.
type Registry struct {
	mu      sync.RWMutex
	amounts map[string]struct{}
}

// NewRegistry returns an empty grounding registry.
func NewRegistry() *Registry {
	return &Registry{amounts: make(map[string]struct{})}
}

// Add registers verified currency strings.
func (r *Registry) Add(amounts ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range amounts {
		r.amounts[a] = struct{}{}
	}
}

// Empty reports whether no tool has registered a figure yet.
func (r *Registry) Empty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.amounts) == 0
}

// Len returns the number of distinct registered figures.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.amounts)
}

// CheckOutput verifies narration against the grounding registry. The
// contract is deliberately loose: currency figures with an empty
// registry mean no tool ran this session, so the figures were invented
// and the output is blocked. A non-empty registry passes unconditionally
// because every figure a tool produces is verified at source, and exact
// matching would false-positive on legitimate narrator reformatting
// (£1234.56 vs £1,234.56, or rounding to ~£412).
func CheckOutput(response string, grounded *Registry) Decision {
	cited := money.CurrencyPattern.FindAllString(response, -1)

	if len(cited) > 0 && grounded.Empty() {
		return Decision{
			Result: Block,
			Intent: IntentGeneralQuery,
			Reason: "Narration cited monetary figures without calling any data tool.",
		}
	}
	return Decision{
		Result: Pass,
		Intent: IntentGeneralQuery,
		Reason: "Response is grounded — tool data was retrieved before answering.",
	}
}

// GuidanceDisclaimer is appended to regulated-adjacent output.
const GuidanceDisclaimer = "\n\n---\n*This is financial guidance based on your transaction " +
	"data, not regulated financial advice. For personalised investment or borrowing advice, " +
	"please speak to a qualified financial adviser.*"

// NeedsDisclaimer reports whether the response touches a
// regulated-adjacent topic.
func NeedsDisclaimer(response string) bool {
	lower := strings.ToLower(response)
	for _, term := range disclaimerTriggerTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// ApplyDisclaimer appends the guidance disclaimer when needed.
// Idempotent: retried turns never double-append.
func ApplyDisclaimer(response string) string {
	if strings.Contains(response, GuidanceDisclaimer) {
		return response
	}
	if NeedsDisclaimer(response) {
		return response + GuidanceDisclaimer
	}
	return response
}

// ExtractAmounts walks a JSON-decoded value and collects every string
// that is exactly a currency amount. Tool results are serialized with
// formatted figures, so this feeds the grounding registry.
func ExtractAmounts(v any) []string {
	seen := make(map[string]struct{})
	extractInto(v, seen)
	out := make([]string, 0, len(seen))
	for a := range seen {
		out = append(out, a)
	}
	return out
}

// ExtractAmountsJSON decodes a JSON payload and extracts its currency
// strings. Malformed payloads yield nothing rather than an error; the
// registry only ever under-counts, which fails safe.
func ExtractAmountsJSON(payload []byte) []string {
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil
	}
	return ExtractAmounts(v)
}

var exactAmount = money.ExactCurrencyPattern

func extractInto(v any, seen map[string]struct{}) {
	switch val := v.(type) {
	case string:
		if exactAmount.MatchString(val) {
			seen[val] = struct{}{}
		}
	case map[string]any:
		for _, item := range val {
			extractInto(item, seen)
		}
	case []any:
		for _, item := range val {
			extractInto(item, seen)
		}
	}
}
