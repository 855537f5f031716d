// Package rules holds the deterministic claim rules. Every evaluator is a pure
// function of (bill, policy): no I/O, no clocks, no randomness, and no
// evaluator looks at another's flags.
package rules

import (
	"github.com/shopspring/decimal"

	"github.com/gyeh/claimaudit/internal/match"
	"github.com/gyeh/claimaudit/internal/model"
	"github.com/gyeh/claimaudit/internal/normalize"
)

// Evaluator inspects a bill/policy pair and returns zero or more flags. It
// must not modify its inputs, and missing data means "does not apply".
type Evaluator interface {
	Name() string
	Evaluate(bill *model.Bill, policy *model.Policy) []model.AuditFlag
}

// Options configures the engine.
type Options struct {
	Matchers match.Set
}

// Engine runs evaluators in a fixed order.
type Engine struct {
	evaluators []Evaluator
}

// NewEngine returns an engine with the standard rule order: PED, waiting
// period, room rent, consumables, exclusions, sub-limits, copay.
func NewEngine(opts Options) *Engine {
	m := opts.Matchers
	if m.Condition == nil || m.Category == nil {
		def := match.Default()
		if m.Condition == nil {
			m.Condition = def.Condition
		}
		if m.Category == nil {
			m.Category = def.Category
		}
	}
	return &Engine{evaluators: []Evaluator{
		PED{Matcher: m.Condition},
		WaitingPeriod{},
		RoomRent{},
		Consumables{Matcher: m.Category},
		Exclusions{},
		SubLimits{Matcher: m.Category},
		Copay{},
	}}
}

// Names lists the evaluators in run order.
func (e *Engine) Names() []string {
	names := make([]string, len(e.evaluators))
	for i, ev := range e.evaluators {
		names[i] = ev.Name()
	}
	return names
}

// Run evaluates every rule and concatenates the flags in rule order. The
// returned slice is never nil.
func (e *Engine) Run(bill *model.Bill, policy *model.Policy) []model.AuditFlag {
	flags := make([]model.AuditFlag, 0)
	if bill == nil || policy == nil {
		return flags
	}
	for _, ev := range e.evaluators {
		flags = append(flags, ev.Evaluate(bill, policy)...)
	}
	return flags
}

var defaultEngine = NewEngine(Options{})

// RunAuditRules runs the default engine.
func RunAuditRules(bill *model.Bill, policy *model.Policy) []model.AuditFlag {
	return defaultEngine.Run(bill, policy)
}

// chargeTotal sums every charge on the bill.
func chargeTotal(charges []model.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, c := range charges {
		total = total.Add(normalize.Dec(c.Amount))
	}
	return total
}

// largest returns the first charge with the highest amount.
func largest(charges []model.LineItem) (model.LineItem, bool) {
	if len(charges) == 0 {
		return model.LineItem{}, false
	}
	best := charges[0]
	for _, c := range charges[1:] {
		if c.Amount > best.Amount {
			best = c
		}
	}
	return best, true
}

func money(d decimal.Decimal) *float64 {
	return model.Amount(normalize.ToFloat(d))
}

func inr(d decimal.Decimal) string {
	return "₹" + normalize.FormatAmount(normalize.ToFloat(d))
}
