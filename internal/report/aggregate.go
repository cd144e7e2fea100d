package report

import (
	"sort"
	"time"

	"github.com/smartyoni/inaeFlexbook/internal/core"
)

// Dimension selects how transactions are grouped into display buckets.
type Dimension string

const (
	ByCategory      Dimension = "category"
	ByPaymentMethod Dimension = "paymentMethod"
	ByDay           Dimension = "day"
)

// UnassignedBucket is the sentinel bucket name for transactions whose
// category reference resolves to nothing ("unassigned" in Korean, matching
// the application's display language).
const UnassignedBucket = "미지정"

// NeutralColor is used for the sentinel bucket and any bucket without a
// color in the lookup table.
const NeutralColor = "#cbd5e1"

// Bucket is one named aggregation group with its summed amount and the
// display color resolved from the lookup table.
type Bucket struct {
	Name   string
	Amount core.Money
	Color  string
}

// Breakdown is the result of grouping and summing a transaction set.
// Buckets are ordered by descending amount; ties keep encounter order.
type Breakdown struct {
	Buckets []Bucket
	Total   core.Money
}

// Share returns a bucket's percentage of the breakdown total. When the
// total is zero every share is zero; the division is guarded so a report
// over an empty range never produces NaN or Inf.
func (b Breakdown) Share(i int) float64 {
	if b.Total.Minor == 0 || i < 0 || i >= len(b.Buckets) {
		return 0
	}
	return float64(b.Buckets[i].Amount.Minor) / float64(b.Total.Minor) * 100
}

// Lookup resolves ids to named, colored entries. Category and payment
// method tables both satisfy it.
type Lookup interface {
	// Resolve returns the display name and color for an id. ok is false
	// when the id is unknown.
	Resolve(id string) (name, color string, ok bool)
	// ColorByName returns the color of the first entry with the given
	// name, for annotating buckets after grouping.
	ColorByName(name string) (string, bool)
}

// CategoryLookup adapts a category slice to the Lookup interface. Slice
// order is preserved so "first entry with that name" is well defined.
type CategoryLookup []core.Category

func (l CategoryLookup) Resolve(id string) (string, string, bool) {
	for _, c := range l {
		if c.ID == id {
			return c.Name, c.Color, true
		}
	}
	return "", "", false
}

func (l CategoryLookup) ColorByName(name string) (string, bool) {
	for _, c := range l {
		if c.Name == name {
			return c.Color, true
		}
	}
	return "", false
}

// PaymentMethodLookup adapts a payment method slice to Lookup.
type PaymentMethodLookup []core.PaymentMethod

func (l PaymentMethodLookup) Resolve(id string) (string, string, bool) {
	for _, m := range l {
		if m.ID == id {
			return m.Name, m.Color, true
		}
	}
	return "", "", false
}

func (l PaymentMethodLookup) ColorByName(name string) (string, bool) {
	for _, m := range l {
		if m.Name == name {
			return m.Color, true
		}
	}
	return "", false
}

// bucketKey maps one transaction to its display bucket. The second return
// is false when the transaction is excluded from this dimension entirely.
//
// Category grouping never drops a transaction: an unresolved reference
// lands in the sentinel bucket. Payment method grouping instead skips
// transactions without a payment method reference; the channel is optional
// and an "unassigned channel" bucket would dominate most charts.
func bucketKey(t core.Transaction, dim Dimension, lookup Lookup) (string, bool) {
	switch dim {
	case ByCategory:
		if name, _, ok := lookup.Resolve(t.CategoryID); ok {
			return name, true
		}
		return UnassignedBucket, true
	case ByPaymentMethod:
		if t.PaymentMethodID == "" {
			return "", false
		}
		if name, _, ok := lookup.Resolve(t.PaymentMethodID); ok {
			return name, true
		}
		return UnassignedBucket, true
	case ByDay:
		return t.OccurredAt.Format("2006-01-02"), true
	default:
		return "", false
	}
}

// Aggregate groups the transactions along dim and sums amounts per bucket.
// lookup may be nil for the day dimension.
//
// Sums are exact integer arithmetic; the sum over all buckets equals the
// sum of the included transactions. Sorting is stable so buckets with
// equal amounts keep the order in which they were first encountered.
func Aggregate(txs []core.Transaction, dim Dimension, lookup Lookup) Breakdown {
	sums := make(map[string]int64)
	var order []string

	for _, t := range txs {
		key, ok := bucketKey(t, dim, lookup)
		if !ok {
			continue
		}
		if _, seen := sums[key]; !seen {
			order = append(order, key)
		}
		sums[key] += t.Amount.Minor
	}

	bd := Breakdown{Buckets: make([]Bucket, 0, len(order))}
	for _, name := range order {
		color := NeutralColor
		if lookup != nil {
			if c, ok := lookup.ColorByName(name); ok && c != "" {
				color = c
			}
		}
		amount := core.Money{Minor: sums[name]}
		bd.Buckets = append(bd.Buckets, Bucket{Name: name, Amount: amount, Color: color})
		bd.Total = bd.Total.Add(amount)
	}

	sort.SliceStable(bd.Buckets, func(i, j int) bool {
		return bd.Buckets[i].Amount.Minor > bd.Buckets[j].Amount.Minor
	})
	return bd
}

// Summary is the whole-collection rollup shown on summary cards.
type Summary struct {
	TotalIncome  core.Money
	TotalExpense core.Money
	Net          core.Money // income minus expense, may be negative
}

// Summarize computes income, expense and net totals over the given set in
// one pass. An empty set yields a zero-valued summary, which is a valid
// outcome, not an error.
func Summarize(txs []core.Transaction) Summary {
	var s Summary
	for _, t := range txs {
		switch t.Kind {
		case core.Income:
			s.TotalIncome = s.TotalIncome.Add(t.Amount)
		case core.Expense:
			s.TotalExpense = s.TotalExpense.Add(t.Amount)
		}
	}
	s.Net = s.TotalIncome.Sub(s.TotalExpense)
	return s
}

// MonthPoint is one month's income/expense pair in a yearly trend series.
type MonthPoint struct {
	Month   time.Month
	Income  core.Money
	Expense core.Money
}

// MonthlyTrend buckets the transactions of one year by calendar month,
// producing exactly twelve zero-initialized points. Transactions outside
// the given year are ignored; malformed timestamps were already dropped by
// the filter, but a zero OccurredAt is skipped here too for safety when
// the caller passes an unfiltered set.
func MonthlyTrend(txs []core.Transaction, year int) [12]MonthPoint {
	var points [12]MonthPoint
	for i := range points {
		points[i].Month = time.Month(i + 1)
	}
	for _, t := range txs {
		if t.OccurredAt.IsZero() || t.OccurredAt.Year() != year {
			continue
		}
		idx := int(t.OccurredAt.Month()) - 1
		switch t.Kind {
		case core.Income:
			points[idx].Income = points[idx].Income.Add(t.Amount)
		case core.Expense:
			points[idx].Expense = points[idx].Expense.Add(t.Amount)
		}
	}
	return points
}
