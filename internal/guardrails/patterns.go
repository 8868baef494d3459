package guardrails

import "regexp"

// Pattern families live here as data so each family is exhaustively
// testable without touching classifier logic. All patterns match
// case-insensitively.

// distressPatterns signpost free debt support before anything else is
// checked. Consumer Duty: proactive care beats topic classification.
// The negation forms cover apostrophe-free typing ("cant pay") and
// "struggling to" / "unable to" phrasings. "emergency fund" is a savings
// concept, not distress, so the desperation pattern deliberately leaves
// "fund" out of its tail group.
var distressPatterns = compileAll([]string{
	`\b(can'?t|cannot|unable to|struggl(e|ing) to)\b.{0,40}\b(pay|afford)\b`,
	`\b(bailiff|debt collectors?|repossession|eviction|bankruptcy|bankrupt|insolvent|iva)\b`,
	`\b(overwhelmed|drowning)\b.*(debt|money|bills|finance)`,
	`\b(desperate|crisis|emergency)\b.*\b(money|financial|cash)\b`,
	`\bfinancial (crisis|emergency)\b`,
	`\bcan'?t (make|meet) ends?\b`,
})

// regulatedAdvicePatterns route to a qualified adviser, never answered
// directly.
var regulatedAdvicePatterns = compileAll([]string{
	`\b(should i|shall i|tell me to)\b.*(invest|buy|sell|stocks|shares|isa|pension|fund)`,
	`\bwhat (stocks?|shares?|funds?|etf)\b.*\b(buy|invest|pick|choose)\b`,
	`\bwhich (mortgage|loan|credit card|insurance)\b.*(should i|best for me|recommend)`,
	`\bbest (rate|deal|product|provider)\b`,
	`\b(tax advice|tax planning|inheritance tax|capital gains)\b`,
	`\b(legal advice|legal claim|sue|lawsuit)\b`,
	`\b(should i|can i afford to)\b.*(borrow|take out a loan|remortgage)\b`,
})

// scopePattern pairs a topic match with an optional exception; the rule
// fires only when match hits and unless (if set) does not. The unless
// patterns stand in for negative lookaheads, which RE2 does not support.
type scopePattern struct {
	match  *regexp.Regexp
	unless *regexp.Regexp
}

// outOfScopePatterns catch general-knowledge and non-financial topics
// before the narrator sees them.
var outOfScopePatterns = []scopePattern{
	{match: compile(`\b(capital (city|of)|largest (city|country|continent)|population of|where is)\b`)},
	{match: compile(`\b(who (is|was|invented|discovered|wrote|directed|won))\b`)},
	{
		match:  compile(`\b(what (is|are|was|were) the? (colour|color|speed|distance|height|weight|age|year|date|language|currency))\b`),
		unless: compile(`currency in my`),
	},
	{match: compile(`\b(formula|equation|periodic table|chemical|atom|molecule|planet|galaxy|evolution)\b`)},
	{
		match:  compile(`\bhow (do|does|did) .{0,30} work\b`),
		unless: compile(`work\b.{0,60}(money|budget|saving|spend|bank|finance|debt|loan|payment)`),
	},
	{
		match:  compile(`\b(world war|history of|ancient|medieval|renaissance|revolution)\b`),
		unless: compile(`revolution in (my|spending|saving)`),
	},
	{match: compile(`\b(novel|book|film|movie|song|album|artist|actor|director|sport|team|match|score|goal)\b`)},
	{
		match:  compile(`\b(recipe|ingredient|cook|bake|calories|diet|exercise|workout|gym routine)\b`),
		unless: compile(`diet budget`),
	},
	{
		match:  compile(`\b(programming language|javascript|python|html|css|linux|windows|android|iphone)\b`),
		unless: compile(`python script`),
	},
	{match: compile(`\b(best (place|country|city|hotel|restaurant|flight) to)\b`)},
	{match: compile(`\b(weather|forecast|temperature|climate)\b`)},
	{
		match:  compile(`\b(politics|political party|election|prime minister|president|religion|god|pray)\b`),
		unless: compile(`(prime minister|president) of my`),
	},
}

// financialAllowlist always wins over an out-of-scope match, so
// messages like "what's the weather doing to my heating bill" still
// reach the coach.
var financialAllowlist = compileAll([]string{
	`\b(spend|spending|spent)\b`,
	`\b(save|saving|savings)\b`,
	`\b(budget|budgeting)\b`,
	`\b(income|salary|wage|earn)\b`,
	`\b(debt|loan|mortgage|credit)\b`,
	`\b(bank|account|balance|transaction)\b`,
	`\b(money|finance|financial|cost|price|afford)\b`,
	`\b(health score|insurance premium|subscription)\b`,
})

// disclaimerTriggerTerms mark regulated-adjacent topics; any output
// containing one gets the guidance disclaimer appended.
var disclaimerTriggerTerms = []string{
	"invest", "pension", "mortgage", "loan", "borrow", "savings account",
	"isa", "interest rate", "remortgage", "credit card",
}

func compile(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + pattern)
}

func compileAll(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = compile(p)
	}
	return out
}
