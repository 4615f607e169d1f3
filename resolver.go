package dap

import (
	"fmt"
	"math"
)

// CoordinateResolver caches sorted ascending 1-D coordinate vectors by
// name and resolves value-based dimension selections to index-based ones
// via nearest-neighbor lookup.
type CoordinateResolver struct {
	cache map[string][]float64
}

func NewCoordinateResolver() *CoordinateResolver {
	return &CoordinateResolver{cache: map[string][]float64{}}
}

// AddCoordinates registers or replaces the coordinate vector for name.
// Correctness of nearest-neighbor lookup requires the vector be sorted
// ascending; the resolver does not verify this itself.
func (r *CoordinateResolver) AddCoordinates(name string, coords []float64) {
	r.cache[name] = coords
}

// ResolveConstraints returns a new ConstraintBuilder with every Value
// selection rewritten to an Index selection by looking up the coordinate
// cached under each constraint's variable name. Index selections pass
// through unchanged.
func (r *CoordinateResolver) ResolveConstraints(b ConstraintBuilder) (ConstraintBuilder, error) {
	resolved := NewConstraintBuilder()
	for _, c := range b.Constraints() {
		dims := make([]Selection, len(c.Dimensions))
		for i, sel := range c.Dimensions {
			if !sel.IsValue {
				dims[i] = sel
				continue
			}
			coords, ok := r.cache[c.Name]
			if !ok {
				return ConstraintBuilder{}, fmt.Errorf("%w: no coordinates found for variable: %s", ErrInvalidData, c.Name)
			}
			idx, err := resolveValueSelection(sel.Value, coords)
			if err != nil {
				return ConstraintBuilder{}, err
			}
			dims[i] = SelectionFromIndex(idx)
		}
		resolved.constraints = append(resolved.constraints, VariableConstraint{Name: c.Name, Dimensions: dims})
	}
	return resolved, nil
}

func resolveValueSelection(sel ValueSelection, coords []float64) (IndexSelection, error) {
	switch sel.Kind {
	case ValueSingle:
		idx, err := FindNearestIndex(coords, sel.Single)
		if err != nil {
			return IndexSelection{}, err
		}
		return NewIndexSingle(idx), nil
	case ValueRange:
		lo_, err := FindNearestIndex(coords, sel.Min)
		if err != nil {
			return IndexSelection{}, err
		}
		hi, err := FindNearestIndex(coords, sel.Max)
		if err != nil {
			return IndexSelection{}, err
		}
		start, end := lo_, hi
		if start > end {
			start, end = end, start
		}
		return NewIndexRange(start, end), nil
	case ValueMultiple:
		indices := make([]int, len(sel.Multiple))
		for i, v := range sel.Multiple {
			idx, err := FindNearestIndex(coords, v)
			if err != nil {
				return IndexSelection{}, err
			}
			indices[i] = idx
		}
		return NewIndexMultiple(indices), nil
	case ValueString, ValueStringRange, ValueStringMultiple:
		return IndexSelection{}, fmt.Errorf("%w: string coordinate lookup", ErrNotImplemented)
	default:
		return IndexSelection{}, fmt.Errorf("%w: unrecognized value selection", ErrInvalidTypecast)
	}
}

// FindNearestIndex binary-searches an ascending coordinate vector for the
// index of the sample closest to target, breaking ties toward the lower
// index. Targets outside the vector's range clamp to the nearest end.
func FindNearestIndex(coords []float64, target float64) (int, error) {
	if len(coords) == 0 {
		return 0, fmt.Errorf("%w: empty coordinate array", ErrInvalidData)
	}
	if target <= coords[0] {
		return 0, nil
	}
	if target >= coords[len(coords)-1] {
		return len(coords) - 1, nil
	}

	left, right := 0, len(coords)-1
	for left < right {
		mid := (left + right) / 2
		if coords[mid] < target {
			left = mid + 1
		} else {
			right = mid
		}
	}

	if left > 0 {
		leftDist := math.Abs(coords[left] - target)
		prevDist := math.Abs(coords[left-1] - target)
		if prevDist <= leftDist {
			return left - 1, nil
		}
	}
	return left, nil
}
