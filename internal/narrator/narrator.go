// Package narrator turns verified tool output into customer-facing prose.
//
// The model is never asked to compute or recall financial figures. It is
// handed a JSON payload of facts already produced by the deterministic
// calculators and asked only to narrate them. Everything it says about
// money must come from that payload; the output guard enforces this
// downstream.
package narrator

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/fincoach/coach/internal/memory"
)

// DefaultModelName is the Gemini model used for narration.
const DefaultModelName = "gemini-2.5-flash"

// SystemPrompt instructs the model on its exact role. The refusal text is
// fixed so scope violations produce an identical, auditable response.
const SystemPrompt = `You are a trusted, knowledgeable and empathetic financial coach that helps
customers understand and improve their financial wellbeing.

## YOUR ROLE
You provide personalised financial GUIDANCE based on the customer's actual
transaction data. You do NOT provide regulated financial advice.

## STRICT SCOPE
You ONLY answer questions about the customer's personal spending, income,
savings or budgeting, their financial health, general financial literacy and
banking products. If a user asks about ANYTHING outside personal finance and
money management, respond with exactly this message and nothing else:

"I'm your financial coach, so I can only help with questions about your money,
spending, savings and financial wellbeing. Is there something about your
finances I can help you with today?"

## CRITICAL ACCURACY RULES
1. NEVER invent, estimate or round financial figures. Every monetary amount
   you mention MUST come directly from the VERIFIED DATA provided to you.
2. Base your entire response on that data. Do not supplement with figures
   from your training knowledge.
3. NEVER recommend specific financial products, interest rates or investment
   options. For those questions, direct the customer to a qualified adviser.

## YOUR TONE
- Warm, clear and jargon-free
- Encouraging but honest
- Concise: most responses should be 3-5 sentences unless detail is requested`

// Request carries everything a narration call needs: recent conversation
// history, the verified facts payload and the customer's current message.
type Request struct {
	History []memory.Turn
	Facts   []byte // JSON from the tool layer; may be nil for small talk
	Message string
}

// Narrator renders a Request into customer-facing text.
type Narrator interface {
	Narrate(ctx context.Context, req Request) (string, error)
}

// Gemini narrates through the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

var _ Narrator = (*Gemini)(nil)

// NewGemini creates a Gemini narrator. Credentials and project settings are
// picked up from the environment, same as the rest of the Google stack;
// GEMINI_MODEL overrides the default model name.
func NewGemini(ctx context.Context) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("narrator: create genai client: %w", err)
	}
	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = DefaultModelName
	}
	return &Gemini{client: client, model: model}, nil
}

// Narrate sends a single constrained prompt and returns the model's text.
func (g *Gemini) Narrate(ctx context.Context, req Request) (string, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: buildPrompt(req)},
			},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("narrator: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("narrator: empty response from model")
	}
	return cleanNarration(text), nil
}

// buildPrompt assembles the full narration prompt: system instructions,
// recent history, the verified fact payload and the current question.
func buildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString(SystemPrompt)
	b.WriteString("\n\n")

	if len(req.History) > 0 {
		b.WriteString("## CONVERSATION SO FAR\n")
		for _, t := range req.History {
			b.WriteString(t.Role)
			b.WriteString(": ")
			b.WriteString(t.Content)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(req.Facts) > 0 {
		b.WriteString("## VERIFIED DATA — narrate ONLY these figures\n")
		b.Write(req.Facts)
		b.WriteString("\n\n")
	} else {
		b.WriteString("## VERIFIED DATA\n(none retrieved for this turn — do not state any monetary figures)\n\n")
	}

	b.WriteString("Customer's message: ")
	b.WriteString(req.Message)
	return b.String()
}

// cleanNarration strips Markdown code fences if the model wraps its answer
// in them despite instructions. Narration is prose, so unlike JSON cleanup
// there is no bracket trimming.
func cleanNarration(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	return s
}
