// Package handoff assembles warm adviser handoffs. When a conversation
// needs a qualified human, the agent bundles the customer's verified
// snapshot, goals, detected life events and the conversation that led
// here, so the adviser picks up where the coach left off and the
// customer never has to start over. In production the package is
// written to the CRM; here it is returned structured.
package handoff

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Reason classifies why a conversation escalates to a human adviser.
type Reason string

const (
	ReasonRegulatedAdvice  Reason = "regulated_advice"
	ReasonMortgageEnquiry  Reason = "mortgage_enquiry"
	ReasonInvestmentAdvice Reason = "investment_advice"
	ReasonPensionAdvice    Reason = "pension_advice"
	ReasonComplexDebt      Reason = "complex_debt"
	ReasonBereavement      Reason = "bereavement"
	ReasonVulnerability    Reason = "vulnerability"
	ReasonCustomerRequest  Reason = "customer_requested"
	ReasonComplaint        Reason = "complaint"
)

var reasonDescriptions = map[Reason]string{
	ReasonRegulatedAdvice:  "Customer requires regulated financial advice",
	ReasonMortgageEnquiry:  "Mortgage application or detailed mortgage advice",
	ReasonInvestmentAdvice: "Investment portfolio or ISA advice",
	ReasonPensionAdvice:    "Pension planning or retirement advice",
	ReasonComplexDebt:      "Complex debt restructuring or IVA enquiry",
	ReasonBereavement:      "Bereavement support and estate matters",
	ReasonVulnerability:    "Customer vulnerability flag raised",
	ReasonCustomerRequest:  "Customer explicitly requested to speak to an adviser",
	ReasonComplaint:        "Customer expressing dissatisfaction",
}

// Describe returns the adviser-facing description of a reason code.
func (r Reason) Describe() string {
	if d, ok := reasonDescriptions[r]; ok {
		return d
	}
	return "Adviser assistance required"
}

// Channel is how the customer reaches the adviser.
type Channel string

const (
	ChannelPhone    Channel = "phone"
	ChannelBranch   Channel = "branch"
	ChannelCallback Channel = "callback"
	ChannelVideo    Channel = "video"
)

var channelContacts = map[Channel]string{
	ChannelPhone:    "0800 072 7000",
	ChannelBranch:   "Find your nearest branch via the app",
	ChannelCallback: "Arrange a callback via the app or website",
	ChannelVideo:    "Book a video appointment via the app or website",
}

// Priorities for adviser routing.
const (
	PriorityStandard = "standard"
	PriorityUrgent   = "urgent"
)

// conversationWindow caps the turns shared with the adviser.
const conversationWindow = 6

// Turn is one conversation message included in the package.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Snapshot carries the customer's verified spending figures, already
// rendered as £ strings so the package grounds the same text the
// customer has seen.
type Snapshot struct {
	NetMonthlyIncome  string `json:"net_monthly_income"`
	AvgMonthlySpend   string `json:"average_monthly_spend"`
	AvgMonthlySurplus string `json:"average_monthly_surplus"`
	CurrentBalance    string `json:"current_balance"`
}

// Request is everything known about the customer at escalation time.
type Request struct {
	Reason             Reason
	TriggeringQuestion string
	CustomerID         string
	CustomerName       string
	Conversation       []Turn
	Snapshot           Snapshot
	HealthScore        *int
	HealthGrade        string
	Goals              []string
	LifeEvents         []string
	SavingsOpps        int
	Vulnerable         bool
}

// Package is the complete context bundle passed to the human adviser.
type Package struct {
	ID                 string    `json:"handoff_id"`
	Reference          string    `json:"handoff_reference"`
	CreatedAt          time.Time `json:"created_at"`
	Reason             Reason    `json:"reason_code"`
	ReasonDescription  string    `json:"reason_description"`
	CustomerID         string    `json:"customer_id"`
	CustomerName       string    `json:"customer_name"`
	Snapshot           Snapshot  `json:"snapshot"`
	HealthScore        *int      `json:"financial_health_score,omitempty"`
	HealthGrade        string    `json:"financial_health_grade,omitempty"`
	TriggeringQuestion string    `json:"triggering_question"`
	Conversation       []Turn    `json:"conversation_summary"`
	Goals              []string  `json:"active_goals"`
	LifeEvents         []string  `json:"detected_life_events"`
	SavingsOpps        int       `json:"savings_opportunities_identified"`
	Channel            Channel   `json:"recommended_channel"`
	Contact            string    `json:"contact_details"`
	Priority           string    `json:"priority"`
	AdviserNotes       []string  `json:"adviser_notes"`
}

// CustomerView is what the customer sees in chat once the handoff
// exists: a reference they can quote, the contact route, and what the
// adviser already knows.
type CustomerView struct {
	Reference     string   `json:"handoff_reference"`
	Reason        string   `json:"reason"`
	NextStep      string   `json:"next_step"`
	Contact       string   `json:"contact"`
	ContextShared string   `json:"context_shared"`
	Priority      string   `json:"priority"`
	AdviserHas    []string `json:"adviser_has"`
}

// ForCustomer renders the customer-facing summary of the handoff.
func (p Package) ForCustomer() CustomerView {
	return CustomerView{
		Reference: p.Reference,
		Reason:    p.ReasonDescription,
		NextStep:  fmt.Sprintf("Speak to a financial adviser via %s", p.Channel),
		Contact:   p.Contact,
		ContextShared: "Your adviser will already have your financial summary, " +
			"so you won't need to repeat yourself.",
		Priority: p.Priority,
		AdviserHas: []string{
			"Your spending and income summary",
			"Your financial health score",
			"Your active financial goals",
			"The question that brought you here",
		},
	}
}

// Builder assembles handoff packages. All content is structured data
// sourced from the deterministic tools; nothing here is generated.
type Builder struct {
	now   func() time.Time
	newID func() string
}

// Option customises a Builder.
type Option func(*Builder)

// WithClock fixes the builder's notion of now.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// WithIDSource overrides handoff id generation.
func WithIDSource(newID func() string) Option {
	return func(b *Builder) { b.newID = newID }
}

// New creates a Builder with real time and uuid ids.
func New(opts ...Option) *Builder {
	b := &Builder{now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build assembles the package. Vulnerability and complaint escalations
// jump to an urgent phone contact; everything else routes to a standard
// callback.
func (b *Builder) Build(req Request) Package {
	priority := PriorityStandard
	channel := ChannelCallback
	if req.Vulnerable || req.Reason == ReasonBereavement ||
		req.Reason == ReasonVulnerability || req.Reason == ReasonComplaint {
		priority = PriorityUrgent
		channel = ChannelPhone
	}

	convo := req.Conversation
	if len(convo) > conversationWindow {
		convo = convo[len(convo)-conversationWindow:]
	}

	id := b.newID()
	return Package{
		ID:                 id,
		Reference:          reference(id),
		CreatedAt:          b.now(),
		Reason:             req.Reason,
		ReasonDescription:  req.Reason.Describe(),
		CustomerID:         req.CustomerID,
		CustomerName:       req.CustomerName,
		Snapshot:           req.Snapshot,
		HealthScore:        req.HealthScore,
		HealthGrade:        req.HealthGrade,
		TriggeringQuestion: req.TriggeringQuestion,
		Conversation:       convo,
		Goals:              req.Goals,
		LifeEvents:         req.LifeEvents,
		SavingsOpps:        req.SavingsOpps,
		Channel:            channel,
		Contact:            channelContacts[channel],
		Priority:           priority,
		AdviserNotes:       adviserNotes(req),
	}
}

// reference is the short customer-quotable form of the handoff id.
func reference(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}

// adviserNotes pre-computes talking points from structured data so the
// adviser reads a briefing, not a transcript.
func adviserNotes(req Request) []string {
	surplus := req.Snapshot.AvgMonthlySurplus
	if surplus == "" {
		surplus = "unknown"
	}
	notes := []string{
		fmt.Sprintf("Customer has a monthly surplus of %s, a financially active profile.", surplus),
	}
	if len(req.Goals) > 0 {
		goals := req.Goals
		if len(goals) > 3 {
			goals = goals[:3]
		}
		notes = append(notes, "Active goals: "+strings.Join(goals, "; "))
	}
	if len(req.LifeEvents) > 0 {
		notes = append(notes, "Recent life events detected: "+strings.Join(req.LifeEvents, ", "))
	}
	if req.HealthScore != nil && *req.HealthScore < 50 {
		notes = append(notes, fmt.Sprintf(
			"Financial health score is %d/100 (grade %s); customer may benefit from a broader financial review.",
			*req.HealthScore, req.HealthGrade))
	}
	if req.SavingsOpps > 0 {
		notes = append(notes, fmt.Sprintf(
			"%d savings opportunities identified by the coach; customer is engaged and open to optimisation.",
			req.SavingsOpps))
	}
	return notes
}
