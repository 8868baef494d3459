package guardrails

import (
	"strings"
	"testing"
)

func TestDistressSignposting(t *testing.T) {
	triggers := []string{
		"I cant pay bill this month",
		"I can't pay my bills this month",
		"cant afford rent",
		"i cant pay",
		"can't make ends meet",
		"I cannot afford my mortgage payments",
		"struggling to pay my loan",
		"I'm struggling to afford my bills",
		"bailiff came to my door",
		"I'm facing repossession",
		"I received an eviction notice",
		"overwhelmed by debt",
		"I might go bankrupt",
		"debt collectors keep calling me",
		"debt collector knocked on my door",
		"I'm in a financial crisis",
		"I'm desperate, I have no financial options",
		"I cant afford anything this month",
		"I cannot pay my rent",
		"I am unable to pay my loan",
		"I cant pay my mortgage",
	}
	for _, msg := range triggers {
		d := CheckInput(msg)
		if d.Result != Redirect {
			t.Errorf("%q: result = %s, want redirect", msg, d.Result)
			continue
		}
		for _, service := range []string{"MoneyHelper", "StepChange", "National Debtline"} {
			if !strings.Contains(d.SafeResponse, service) {
				t.Errorf("%q: distress response missing %s", msg, service)
			}
		}
	}

	nonTriggers := []string{
		"I want to save more money",
		"How can I reduce my bills?",
		"I'd like to pay off my credit card",
		"Can I afford a holiday this year?",
		"Help me budget better",
		"What is my spending this month?",
	}
	for _, msg := range nonTriggers {
		d := CheckInput(msg)
		if d.Result == Redirect && d.Intent != IntentRegulatedAdvice {
			t.Errorf("%q: unexpected distress redirect", msg)
		}
	}
}

func TestDistressChecksBeforeRegulatedAdvice(t *testing.T) {
	// A message matching both families must get the support signpost.
	d := CheckInput("I cant afford my mortgage payments, should I remortgage?")
	if d.Result != Redirect {
		t.Fatalf("result = %s, want redirect", d.Result)
	}
	if !strings.Contains(d.SafeResponse, "MoneyHelper") {
		t.Error("distress must take priority over the regulated-advice check")
	}
}

func TestRegulatedAdviceRedirects(t *testing.T) {
	regulated := []string{
		"Should I put my pension into a SIPP?",
		"Should I buy shares in Lloyds?",
		"Should I sell my investments?",
		"Should I invest in stocks?",
		"What is the best deal for my mortgage?",
		"Which is the best product for savings?",
		"Give me tax advice for my situation",
		"I need help with inheritance tax",
		"Can I afford to take out a loan?",
		"Should I remortgage my house?",
		"Which mortgage should I take?",
	}
	for _, msg := range regulated {
		d := CheckInput(msg)
		if d.Result != Redirect || d.Intent != IntentRegulatedAdvice {
			t.Errorf("%q: got %s/%s, want redirect/regulated_advice", msg, d.Result, d.Intent)
		}
	}

	d := CheckInput("Which stocks should I buy right now?")
	if !strings.Contains(strings.ToLower(d.SafeResponse), "adviser") {
		t.Error("regulated redirect should mention an adviser")
	}

	// General financial education is not regulated advice.
	if d := CheckInput("Can you explain what an ISA is in general?"); d.Result != Pass {
		t.Errorf("ISA education question: got %s, want pass", d.Result)
	}
}

func TestOutOfScopeFilter(t *testing.T) {
	oos := []string{
		"What is the capital of France?",
		"Who invented the telephone?",
		"Who wrote Pride and Prejudice?",
		"Give me a recipe for pasta",
		"Who won the World Cup?",
	}
	for _, msg := range oos {
		d := CheckInput(msg)
		if d.Result != Block || d.Intent != IntentOutOfScope {
			t.Errorf("%q: got %s/%s, want block/out_of_scope", msg, d.Result, d.Intent)
		}
	}

	inScope := []string{
		"What is a savings rate?",
		"Explain compound interest to me",
		"Tell me about 50/30/20 budgeting",
		"What is a good emergency fund size?",
		"How much am I spending on groceries?",
		"What is my financial health score?",
		"Can you help me make a budget?",
	}
	for _, msg := range inScope {
		if d := CheckInput(msg); d.Result != Pass {
			t.Errorf("%q: got %s (%s), want pass", msg, d.Result, d.Reason)
		}
	}

	if d := CheckInput("What is the capital of France?"); !strings.Contains(strings.ToLower(d.SafeResponse), "financial") {
		t.Error("scope reminder should point back to finances")
	}
}

func TestAllowlistBeatsOutOfScope(t *testing.T) {
	// "weather" is out of scope but the spending context wins.
	d := CheckInput("what's the weather doing to my heating bill spending?")
	if d.Result != Pass {
		t.Errorf("allowlisted financial term should override OOS match, got %s", d.Result)
	}
}

func TestCheckOutput(t *testing.T) {
	t.Run("ungrounded amount blocked", func(t *testing.T) {
		d := CheckOutput("Your spend is £999.99", NewRegistry())
		if d.Result != Block {
			t.Errorf("got %s, want block", d.Result)
		}
		if d.Reason == "" {
			t.Error("block decision must carry a reason")
		}
	})

	t.Run("no amounts always passes", func(t *testing.T) {
		if d := CheckOutput("That's great budgeting!", NewRegistry()); d.Result != Pass {
			t.Errorf("got %s, want pass", d.Result)
		}
		if d := CheckOutput("", NewRegistry()); d.Result != Pass {
			t.Errorf("empty response: got %s, want pass", d.Result)
		}
	})

	t.Run("grounded registry passes exact figure", func(t *testing.T) {
		reg := NewRegistry()
		reg.Add("£1,234.56")
		if d := CheckOutput("Your monthly spend is £1,234.56", reg); d.Result != Pass {
			t.Errorf("got %s, want pass", d.Result)
		}
	})

	t.Run("grounded registry tolerates reformatting", func(t *testing.T) {
		reg := NewRegistry()
		reg.Add("£499.99")
		if d := CheckOutput("You spent about £500 this month", reg); d.Result != Pass {
			t.Errorf("rounded figure with tools called: got %s, want pass", d.Result)
		}
	})

	t.Run("multiple ungrounded amounts blocked", func(t *testing.T) {
		if d := CheckOutput("You earn £3,000 and spend £2,500 monthly.", NewRegistry()); d.Result != Block {
			t.Errorf("got %s, want block", d.Result)
		}
	})
}

func TestDisclaimerInjection(t *testing.T) {
	triggers := []string{
		"mortgage", "ISA", "pension", "investment", "loan",
		"interest rate", "savings account", "remortgage", "credit card", "borrow",
	}
	for _, term := range triggers {
		response := "You should consider a " + term + " for your situation."
		out := ApplyDisclaimer(response)
		if !strings.Contains(out, "not regulated financial advice") {
			t.Errorf("%q: disclaimer not injected", term)
		}
		if !strings.HasPrefix(out, response) {
			t.Errorf("%q: disclaimer must be appended, not prepended", term)
		}
	}

	nonTriggers := []string{"groceries", "budget", "spending", "emergency fund", "monthly surplus"}
	for _, term := range nonTriggers {
		out := ApplyDisclaimer("Your " + term + " this month looks good.")
		if strings.Contains(out, "not regulated financial advice") {
			t.Errorf("%q: disclaimer wrongly injected", term)
		}
	}
}

func TestDisclaimerIdempotent(t *testing.T) {
	once := ApplyDisclaimer("Consider an ISA for your savings.")
	twice := ApplyDisclaimer(once)
	if twice != once {
		t.Error("reapplying the disclaimer must not change the output")
	}
	if strings.Count(twice, "not regulated financial advice") != 1 {
		t.Errorf("disclaimer appended %d times, want 1", strings.Count(twice, "not regulated financial advice"))
	}
}

func TestNeedsDisclaimer(t *testing.T) {
	if !NeedsDisclaimer("Here is some pension info.") {
		t.Error("pension should trigger the disclaimer")
	}
	if NeedsDisclaimer("You saved money this month.") {
		t.Error("plain savings chat should not trigger the disclaimer")
	}
}

func TestExtractAmounts(t *testing.T) {
	t.Run("nested structures", func(t *testing.T) {
		payload := []byte(`{
			"insights": {
				"monthly_spend": "£500.00",
				"categories": [
					{"amount": "£100.00"},
					{"amount": "£50.00"}
				]
			},
			"label": "groceries",
			"trend": "stable"
		}`)
		got := ExtractAmountsJSON(payload)
		want := map[string]bool{"£500.00": true, "£100.00": true, "£50.00": true}
		if len(got) != len(want) {
			t.Fatalf("extracted %v, want 3 amounts", got)
		}
		for _, a := range got {
			if !want[a] {
				t.Errorf("unexpected amount %q", a)
			}
		}
	})

	t.Run("deduplicates", func(t *testing.T) {
		got := ExtractAmountsJSON([]byte(`{"a": "£100.00", "b": "£100.00"}`))
		if len(got) != 1 || got[0] != "£100.00" {
			t.Errorf("got %v, want single £100.00", got)
		}
	})

	t.Run("non-currency strings ignored", func(t *testing.T) {
		got := ExtractAmountsJSON([]byte(`{"grade": "B", "note": "spend £50 wisely"}`))
		if len(got) != 0 {
			t.Errorf("got %v, want nothing: only whole-field amounts count", got)
		}
	})

	t.Run("malformed payload yields nothing", func(t *testing.T) {
		if got := ExtractAmountsJSON([]byte(`{broken`)); len(got) != 0 {
			t.Errorf("got %v, want empty", got)
		}
	})
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	if !reg.Empty() || reg.Len() != 0 {
		t.Fatal("fresh registry should be empty")
	}
	reg.Add("£100.00", "£200.00", "£100.00")
	if reg.Len() != 2 {
		t.Errorf("len = %d, want 2 distinct amounts", reg.Len())
	}
	if reg.Empty() {
		t.Error("registry with amounts is not empty")
	}
}
