package dap

import (
	"fmt"
	"strings"
)

// IndexSelectionKind tags the four index-based (isel-style) dimension
// selections.
type IndexSelectionKind int

const (
	IndexSingle IndexSelectionKind = iota
	IndexRange
	IndexStride
	IndexMultiple
)

// IndexSelection is one dimension's index-based constraint.
type IndexSelection struct {
	Kind     IndexSelectionKind
	Single   int
	Start    int
	End      int
	Stride   int
	Multiple []int
}

func NewIndexSingle(i int) IndexSelection { return IndexSelection{Kind: IndexSingle, Single: i} }

func NewIndexRange(start, end int) IndexSelection {
	return IndexSelection{Kind: IndexRange, Start: start, End: end}
}

func NewIndexStride(start, stride, end int) IndexSelection {
	return IndexSelection{Kind: IndexStride, Start: start, Stride: stride, End: end}
}

func NewIndexMultiple(indices []int) IndexSelection {
	return IndexSelection{Kind: IndexMultiple, Multiple: indices}
}

func (s IndexSelection) render() string {
	switch s.Kind {
	case IndexSingle:
		return fmt.Sprintf("[%d]", s.Single)
	case IndexRange:
		return fmt.Sprintf("[%d:%d]", s.Start, s.End)
	case IndexStride:
		return fmt.Sprintf("[%d:%d:%d]", s.Start, s.Stride, s.End)
	case IndexMultiple:
		var b strings.Builder
		for _, i := range s.Multiple {
			fmt.Fprintf(&b, "[%d]", i)
		}
		return b.String()
	default:
		return ""
	}
}

// count returns how many elements this selection resolves to, used by
// EstimatedSize.
func (s IndexSelection) count() int64 {
	switch s.Kind {
	case IndexSingle:
		return 1
	case IndexRange:
		return int64(s.End-s.Start) + 1
	case IndexStride:
		span := s.End - s.Start
		if s.Stride <= 0 {
			return int64(span) + 1
		}
		return int64(span)/int64(s.Stride) + 1
	case IndexMultiple:
		return int64(len(s.Multiple))
	default:
		return 0
	}
}

// ValueSelectionKind tags the value-based (sel-style) dimension
// selections, resolved to index selections by a CoordinateResolver.
type ValueSelectionKind int

const (
	ValueSingle ValueSelectionKind = iota
	ValueRange
	ValueMultiple
	ValueString
	ValueStringRange
	ValueStringMultiple
)

// ValueSelection is one dimension's coordinate-value constraint, pending
// resolution to indices.
type ValueSelection struct {
	Kind        ValueSelectionKind
	Single      float64
	Min         float64
	Max         float64
	Multiple    []float64
	Str         string
	StrMin      string
	StrMax      string
	StrMultiple []string
}

func NewValueSingle(v float64) ValueSelection { return ValueSelection{Kind: ValueSingle, Single: v} }

func NewValueRange(min, max float64) ValueSelection {
	return ValueSelection{Kind: ValueRange, Min: min, Max: max}
}

func NewValueMultiple(values []float64) ValueSelection {
	return ValueSelection{Kind: ValueMultiple, Multiple: values}
}

func NewValueString(v string) ValueSelection { return ValueSelection{Kind: ValueString, Str: v} }

func NewValueStringRange(min, max string) ValueSelection {
	return ValueSelection{Kind: ValueStringRange, StrMin: min, StrMax: max}
}

func NewValueStringMultiple(values []string) ValueSelection {
	return ValueSelection{Kind: ValueStringMultiple, StrMultiple: values}
}

// Selection is either an index-based or value-based dimension selection.
type Selection struct {
	IsValue bool
	Index   IndexSelection
	Value   ValueSelection
}

func SelectionFromIndex(i IndexSelection) Selection { return Selection{Index: i} }
func SelectionFromValue(v ValueSelection) Selection { return Selection{IsValue: true, Value: v} }

// VariableConstraint is one variable's ordered list of per-dimension
// selections.
type VariableConstraint struct {
	Name       string
	Dimensions []Selection
}

// IndexSelections and ValueSelections key a batch of per-variable
// selections passed to ISel/Sel in one call.
type IndexSelections map[string]IndexSelection
type ValueSelections map[string]ValueSelection

// ConstraintBuilder assembles per-variable hypercube constraints for an
// OpenDAP URL. Every mutating method returns a new ConstraintBuilder value;
// the receiver is never modified, so builders may be shared and branched
// freely.
type ConstraintBuilder struct {
	constraints []VariableConstraint
}

func NewConstraintBuilder() ConstraintBuilder {
	return ConstraintBuilder{}
}

// ISel adds index-based (isel-style) selections, appending to existing
// entries for a variable or creating new ones, preserving prior order.
func (b ConstraintBuilder) ISel(selections IndexSelections) ConstraintBuilder {
	next := b
	for name, sel := range selections {
		next = next.appendSelection(name, SelectionFromIndex(sel))
	}
	return next
}

// Sel adds value-based (sel-style) selections, pending resolution by a
// CoordinateResolver.
func (b ConstraintBuilder) Sel(selections ValueSelections) ConstraintBuilder {
	next := b
	for name, sel := range selections {
		next = next.appendSelection(name, SelectionFromValue(sel))
	}
	return next
}

func (b ConstraintBuilder) appendSelection(name string, sel Selection) ConstraintBuilder {
	next := make([]VariableConstraint, len(b.constraints))
	copy(next, b.constraints)
	for i, c := range next {
		if c.Name == name {
			dims := make([]Selection, len(c.Dimensions)+1)
			copy(dims, c.Dimensions)
			dims[len(c.Dimensions)] = sel
			next[i] = VariableConstraint{Name: c.Name, Dimensions: dims}
			return ConstraintBuilder{constraints: next}
		}
	}
	next = append(next, VariableConstraint{Name: name, Dimensions: []Selection{sel}})
	return ConstraintBuilder{constraints: next}
}

// Build emits the comma-separated constraint string for an OpenDAP URL.
func (b ConstraintBuilder) Build() string {
	if len(b.constraints) == 0 {
		return ""
	}
	parts := make([]string, len(b.constraints))
	for i, c := range b.constraints {
		parts[i] = formatVariableConstraint(c)
	}
	return strings.Join(parts, ",")
}

// Constraints returns the builder's variable constraints in insertion
// order.
func (b ConstraintBuilder) Constraints() []VariableConstraint {
	out := make([]VariableConstraint, len(b.constraints))
	copy(out, b.constraints)
	return out
}

func formatVariableConstraint(c VariableConstraint) string {
	var sb strings.Builder
	sb.WriteString(c.Name)
	for _, d := range c.Dimensions {
		if d.IsValue {
			sb.WriteString("[VALUE_LOOKUP_NEEDED]")
		} else {
			sb.WriteString(d.Index.render())
		}
	}
	return sb.String()
}
