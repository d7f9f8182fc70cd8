package diag

import "sort"

// Reporter receives diagnostics. Implementations must not panic and must not
// influence parsing.
type Reporter interface {
	Report(d Diagnostic)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(d Diagnostic)

func (f ReporterFunc) Report(d Diagnostic) { f(d) }

// Bag collects diagnostics in report order. A positive limit caps how many
// are kept; the rest are only counted.
type Bag struct {
	limit   int
	items   []Diagnostic
	dropped int
}

func NewBag(limit int) *Bag {
	return &Bag{limit: limit}
}

func (b *Bag) Report(d Diagnostic) {
	if b.limit > 0 && len(b.items) >= b.limit {
		b.dropped++
		return
	}
	b.items = append(b.items, d)
}

func (b *Bag) Items() []Diagnostic { return b.items }

func (b *Bag) Len() int { return len(b.items) + b.dropped }

func (b *Bag) HasErrors() bool { return b.Len() > 0 }

// Truncated returns how many diagnostics were dropped past the limit.
func (b *Bag) Truncated() int { return b.dropped }

// Sorted returns the kept diagnostics ordered by file offset.
func (b *Bag) Sorted() []Diagnostic {
	out := append([]Diagnostic(nil), b.items...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pos.Filename != out[j].Pos.Filename {
			return out[i].Pos.Filename < out[j].Pos.Filename
		}
		return out[i].Pos.Offset < out[j].Pos.Offset
	})
	return out
}

// Kinds lists the kinds of the kept diagnostics in report order.
func (b *Bag) Kinds() []Kind {
	out := make([]Kind, len(b.items))
	for i, d := range b.items {
		out[i] = d.Kind
	}
	return out
}
