package knowledge

// Document is one reviewed guidance source.
type Document struct {
	Source  string
	Content string
}

// Chunks are separated by "\n---\n" inside each document. The corpus is
// reviewed guidance text: narration must draw product explanations from
// here, never from model pre-training.
var builtinCorpus = []Document{
	{
		Source: "budgeting_basics.txt",
		Content: `The 50/30/20 budget splits take-home pay into three buckets: 50% for needs
(rent or mortgage, groceries, utilities, transport), 30% for wants (eating out,
entertainment, shopping, subscriptions) and 20% for savings and debt repayment.
It is a guideline, not a rule: in high-rent areas needs often exceed 50%, and
the right response is to trim the wants bucket rather than abandon saving.
---
Reviewing your spending by category once a month is the single most effective
budgeting habit. Look for categories that grew without a deliberate decision,
such as subscriptions that renewed quietly or delivery costs folded into eating
out.
---
Paying yourself first means moving money to savings on payday, before
discretionary spending happens. A standing order the day after your salary
arrives removes the willpower element entirely.`,
	},
	{
		Source: "emergency_funds.txt",
		Content: `An emergency fund covers essential spending when income stops or a large
unexpected cost lands. The usual guideline is three to six months of essential
outgoings, held somewhere instantly accessible such as an easy-access savings
account.
---
Build the fund before overpaying cheap debt or investing: without a buffer, any
shock forces expensive borrowing. One month of essentials is a good first
milestone.
---
Keep the emergency fund separate from everyday banking so it is not absorbed
into routine spending. A separate named savings pot is enough.`,
	},
	{
		Source: "savings_accounts.txt",
		Content: `Easy-access savings accounts let you withdraw at any time, usually at a lower
interest rate. Regular saver accounts pay a higher rate but cap the monthly
deposit and may restrict withdrawals during the term.
---
A Cash ISA shelters interest from income tax, with an annual contribution
allowance set by the government each tax year. Whether it beats an ordinary
savings account depends on your tax band and whether you exceed the personal
savings allowance.
---
Compound interest means interest earned on previous interest. Saving regularly
matters more than the exact rate in the early years, because the balance is
what the rate multiplies.`,
	},
	{
		Source: "mortgage_process.txt",
		Content: `Lenders typically cap borrowing at around 4.5 times gross annual income, then
apply an affordability stress test: repayments must remain affordable if rates
rise by about 3 percentage points above the product rate.
---
A Decision in Principle is an indicative lending amount based on a soft credit
check. It is not a mortgage offer. The full application adds a hard credit
check, income verification and a valuation of the property.
---
Deposit size drives the loan-to-value ratio. Dropping from 95% to 90% LTV
usually unlocks noticeably better rates, so a slightly larger deposit can
reduce total cost substantially.
---
Fixed rates give payment certainty for the fixed term; tracker rates follow
the base rate and can fall as well as rise. The right choice depends on how
much payment volatility your budget can absorb.`,
	},
	{
		Source: "debt_repayment.txt",
		Content: `When debt interest exceeds savings interest, repaying debt is usually the
better use of spare money: the saving is guaranteed at the debt's rate. The
common exception is keeping a small emergency buffer first.
---
The avalanche method pays the highest-rate debt first and minimises total
interest. The snowball method clears the smallest balance first and builds
momentum. Both work; the best one is the one you stick to.
---
If you are struggling with debt, free and impartial help is available from
MoneyHelper, StepChange and National Debtline. Talking to creditors early
usually opens more options, not fewer.`,
	},
}
