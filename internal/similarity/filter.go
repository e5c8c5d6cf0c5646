package similarity

import (
	"fmt"
	"strings"
)

// Filter is a predicate over entry metadata. Filters refine similarity
// search results; they are an optional narrowing, never the primary
// retrieval mechanism.
type Filter interface {
	// Matches reports whether the metadata satisfies the predicate.
	Matches(metadata map[string]any) bool

	// String renders the predicate for logging.
	String() string
}

type comparison struct {
	field string
	op    string
	value any
}

func (c comparison) Matches(metadata map[string]any) bool {
	actual, ok := metadata[c.field]
	if !ok {
		return false
	}

	switch c.op {
	case "=":
		return equalValues(actual, c.value)
	case "!=":
		return !equalValues(actual, c.value)
	}

	cmp, ok := compareValues(actual, c.value)
	if !ok {
		return false
	}
	switch c.op {
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	}
	return false
}

func (c comparison) String() string {
	return fmt.Sprintf("%s %s %v", c.field, c.op, c.value)
}

// Eq matches entries whose metadata field equals value.
func Eq(field string, value any) Filter { return comparison{field, "=", value} }

// Ne matches entries whose metadata field differs from value.
func Ne(field string, value any) Filter { return comparison{field, "!=", value} }

// Gt matches entries whose metadata field is greater than value.
func Gt(field string, value any) Filter { return comparison{field, ">", value} }

// Gte matches entries whose metadata field is at least value.
func Gte(field string, value any) Filter { return comparison{field, ">=", value} }

// Lt matches entries whose metadata field is less than value.
func Lt(field string, value any) Filter { return comparison{field, "<", value} }

// Lte matches entries whose metadata field is at most value.
func Lte(field string, value any) Filter { return comparison{field, "<=", value} }

type conjunction struct {
	filters []Filter
	all     bool
}

func (c conjunction) Matches(metadata map[string]any) bool {
	for _, f := range c.filters {
		if f.Matches(metadata) != c.all {
			return !c.all
		}
	}
	return c.all
}

func (c conjunction) String() string {
	parts := make([]string, len(c.filters))
	for i, f := range c.filters {
		parts[i] = f.String()
	}
	sep := " AND "
	if !c.all {
		sep = " OR "
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// And matches entries satisfying every sub-filter. And() with no filters
// matches everything.
func And(filters ...Filter) Filter { return conjunction{filters, true} }

// Or matches entries satisfying at least one sub-filter. Or() with no
// filters matches nothing.
func Or(filters ...Filter) Filter { return conjunction{filters, false} }

type negation struct {
	inner Filter
}

func (n negation) Matches(metadata map[string]any) bool {
	return !n.inner.Matches(metadata)
}

func (n negation) String() string {
	return "NOT " + n.inner.String()
}

// Not inverts a filter.
func Not(f Filter) Filter { return negation{f} }

// equalValues compares with numeric coercion, so int and float64 forms of
// the same number (a JSON round-trip artifact) compare equal.
func equalValues(a, b any) bool {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
		return false
	}
	return a == b
}

// compareValues orders two values when they are both numeric or both
// strings. The second return is false for incomparable types.
func compareValues(a, b any) (int, bool) {
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		if !bok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}

	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
