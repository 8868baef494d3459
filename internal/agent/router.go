package agent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fincoach/coach/internal/domain"
)

// toolName identifies one deterministic tool the agent can run for a turn.
type toolName string

const (
	toolInsights      toolName = "get_spending_insights"
	toolHealth        toolName = "get_financial_health_score"
	toolDetail        toolName = "get_category_detail"
	toolOpportunities toolName = "get_savings_opportunities"
	toolTrends        toolName = "get_spending_trends"
	toolMortgage      toolName = "assess_mortgage_affordability"
	toolTradeoff      toolName = "analyse_debt_vs_savings"
	toolBudget        toolName = "build_budget_plan"
	toolLifeEvents    toolName = "detect_life_events"
	toolProducts      toolName = "check_product_eligibility"
	toolGuidance      toolName = "search_guidance"
	toolHandoff       toolName = "escalate_to_adviser"
)

// routing is the router's verdict for one message.
type routing struct {
	Tool     toolName
	Category domain.Category // detail only
	Months   int             // detail / insights / trends
	Amounts  []decimal.Decimal
	RatesPct []decimal.Decimal
}

// lifeEventTriggers forces a deterministic detector scan before narration
// whenever the customer mentions a life event, so the narrator speaks from
// transaction evidence instead of hypotheticals.
var lifeEventTriggers = regexp.MustCompile(`(?i)\b(baby|babies|pregnant|pregnancy|nursery|childcare|child care|` +
	`moving home|buy.*house|buying.*house|new house|first home|` +
	`new job|lost.*job|redundan|pay rise|salary|promotion|` +
	`getting married|marriage|wedding|` +
	`new rent|renting|flat|moving out)\b`)

var (
	adviserWords = regexp.MustCompile(`(?i)\b((speak|talk) to (an? |a human |someone|the )?(adviser|advisor|human|person|someone)|` +
		`human adviser|real person|connect me|arrange (that|a call(back)?|an appointment)|` +
		`book (a call(back)?|an appointment)|escalate)\b`)
	mortgageWords = regexp.MustCompile(`(?i)\b(mortgage|afford.*(house|home|property|flat)|borrow|deposit.*(house|home|property)|house deposit)\b`)
	tradeoffWords = regexp.MustCompile(`(?i)\b(overpay|pay (off|down).*(debt|loan|card|mortgage)|debt.{0,30}\b(or|vs|versus)\b.{0,30}sav|sav.{0,30}\b(or|vs|versus)\b.{0,30}debt)\b`)
	budgetWords   = regexp.MustCompile(`(?i)\b(budget|50/30/20|budgeting plan|plan my (money|spending|month))\b`)
	healthWords   = regexp.MustCompile(`(?i)\b(health score|financial health|how healthy|score my)\b`)
	opportunity   = regexp.MustCompile(`(?i)\b(save money|savings opportunit|cut (back|down)|reduce my spending|spend less|where can i save)\b`)
	trendWords    = regexp.MustCompile(`(?i)\b(trends?|over the (last|past)|year on year|long.?term|past \d+ months)\b`)
	productWords  = regexp.MustCompile(`(?i)\b(products?|eligib|savings account|open an? (account|isa)|personal loan|which account)\b`)
	guidanceWords = regexp.MustCompile(`(?i)\b(what('| i)?s an?|what is|how (do|does|should) i|explain|emergency fund|difference between|tips? (on|for))\b`)
	detailWords   = regexp.MustCompile(`(?i)\b(spend(ing)?|spent|cost(ing)?|how much)\b`)

	goalMention = regexp.MustCompile(`(?i)\b(save|saving|put (away|aside)|goal)\b`)

	amountPattern = regexp.MustCompile(`£([\d,]+(?:\.\d+)?)`)
	ratePattern   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s?%`)
	monthsPattern = regexp.MustCompile(`(?i)(\d+)\s*months?`)
)

// categoryAliases maps conversational phrasing onto the category
// taxonomy. Order matters: when a message mentions several categories
// the first listed alias wins, so the match is stable across runs.
var categoryAliases = []struct {
	alias string
	cat   domain.Category
}{
	{"eating out", domain.CategoryEatingOut},
	{"takeaway", domain.CategoryEatingOut},
	{"restaurants", domain.CategoryEatingOut},
	{"groceries", domain.CategoryGroceries},
	{"food shop", domain.CategoryGroceries},
	{"supermarket", domain.CategoryGroceries},
	{"transport", domain.CategoryTransport},
	{"travel", domain.CategoryTransport},
	{"commut", domain.CategoryTransport},
	{"utilities", domain.CategoryUtilities},
	{"bills", domain.CategoryUtilities},
	{"heating bill", domain.CategoryUtilities},
	{"energy bill", domain.CategoryUtilities},
	{"subscription", domain.CategorySubscriptions},
	{"streaming", domain.CategorySubscriptions},
	{"shopping", domain.CategoryShopping},
	{"entertainment", domain.CategoryEntertainment},
	{"health", domain.CategoryHealth},
	{"gym", domain.CategoryHealth},
	{"cash", domain.CategoryCashWithdrawal},
	{"rent", domain.CategoryRent},
}

// route picks the single tool for a message. Order matters: the most
// specific intents are checked first and the router always lands on a
// tool, falling through to full insights.
func route(message string) routing {
	r := routing{
		Months:   defaultAnalysisMonths,
		Amounts:  parseAmounts(message),
		RatesPct: parseRates(message),
	}
	if m := monthsPattern.FindStringSubmatch(message); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			r.Months = n
		}
	}

	switch {
	case adviserWords.MatchString(message):
		r.Tool = toolHandoff
	case mortgageWords.MatchString(message):
		r.Tool = toolMortgage
	case tradeoffWords.MatchString(message):
		r.Tool = toolTradeoff
	case budgetWords.MatchString(message):
		r.Tool = toolBudget
	case healthWords.MatchString(message):
		r.Tool = toolHealth
	case opportunity.MatchString(message):
		r.Tool = toolOpportunities
	case productWords.MatchString(message):
		r.Tool = toolProducts
	case trendWords.MatchString(message):
		r.Tool = toolTrends
	default:
		if cat, ok := matchCategory(message); ok && detailWords.MatchString(message) {
			r.Tool = toolDetail
			r.Category = cat
			return r
		}
		if guidanceWords.MatchString(message) {
			r.Tool = toolGuidance
			return r
		}
		r.Tool = toolInsights
	}
	return r
}

func matchCategory(message string) (domain.Category, bool) {
	lower := strings.ToLower(message)
	for _, a := range categoryAliases {
		if strings.Contains(lower, a.alias) {
			return a.cat, true
		}
	}
	for _, cat := range domain.Categories {
		name := strings.ReplaceAll(string(cat), "_", " ")
		if strings.Contains(lower, name) {
			return cat, true
		}
	}
	return "", false
}

func parseAmounts(message string) []decimal.Decimal {
	var out []decimal.Decimal
	for _, m := range amountPattern.FindAllStringSubmatch(message, -1) {
		raw := strings.ReplaceAll(m[1], ",", "")
		if d, err := decimal.NewFromString(raw); err == nil {
			out = append(out, d)
		}
	}
	return out
}

func parseRates(message string) []decimal.Decimal {
	var out []decimal.Decimal
	for _, m := range ratePattern.FindAllStringSubmatch(message, -1) {
		if d, err := decimal.NewFromString(m[1]); err == nil {
			out = append(out, d)
		}
	}
	return out
}
