package dap

import (
	"fmt"

	"github.com/samber/lo"
)

// DatasetQuery is a metadata-validated, value-semantics query builder
// bound to a parsed Dataset. Every mutating method returns a new
// DatasetQuery; the receiver is left untouched.
type DatasetQuery struct {
	dataset     *Dataset
	index       *MetadataIndex
	base        URLBuilder
	variables   []string
	constraints map[string]IndexSelection
}

// NewDatasetQuery validates dataset and binds it to baseURL.
func NewDatasetQuery(dataset *Dataset, baseURL string) (DatasetQuery, error) {
	idx, err := NewMetadataIndex(dataset)
	if err != nil {
		return DatasetQuery{}, err
	}
	return DatasetQuery{dataset: dataset, index: idx, base: NewURLBuilder(baseURL)}, nil
}

func (q DatasetQuery) clone() DatasetQuery {
	vars := make([]string, len(q.variables))
	copy(vars, q.variables)
	cons := make(map[string]IndexSelection, len(q.constraints))
	for k, v := range q.constraints {
		cons[k] = v
	}
	return DatasetQuery{dataset: q.dataset, index: q.index, base: q.base, variables: vars, constraints: cons}
}

// SelectVariable validates name against the dataset's variable list and
// adds it to the selection, deduplicating repeats.
func (q DatasetQuery) SelectVariable(name string) (DatasetQuery, error) {
	if !q.index.HasVariable(name) {
		return DatasetQuery{}, fmt.Errorf("%w: unknown variable %q", ErrParseError, name)
	}
	next := q.clone()
	next.variables = lo.Uniq(append(next.variables, name))
	return next, nil
}

// SelectVariables applies SelectVariable for each name in order.
func (q DatasetQuery) SelectVariables(names ...string) (DatasetQuery, error) {
	next := q
	for _, name := range names {
		var err error
		next, err = next.SelectVariable(name)
		if err != nil {
			return DatasetQuery{}, err
		}
	}
	return next, nil
}

// SelectByCoordinate validates that coord exists, that constraint's bounds
// lie within the coordinate's declared size, and — if any variable has
// already been selected — that coord is among that variable's dimensions.
func (q DatasetQuery) SelectByCoordinate(coord string, constraint IndexSelection) (DatasetQuery, error) {
	if !q.index.HasCoordinate(coord) {
		return DatasetQuery{}, fmt.Errorf("%w: unknown coordinate %q", ErrParseError, coord)
	}
	info, err := q.index.CoordinateInfo(coord)
	if err != nil {
		return DatasetQuery{}, err
	}
	if err := checkIndexBounds(constraint, info.Size); err != nil {
		return DatasetQuery{}, err
	}
	for _, v := range q.variables {
		varInfo, err := q.index.VariableInfo(v)
		if err != nil {
			return DatasetQuery{}, err
		}
		if !lo.Contains(varInfo.CoordNames, coord) {
			return DatasetQuery{}, fmt.Errorf("%w: coordinate not available for variable %q", ErrParseError, v)
		}
	}
	next := q.clone()
	next.constraints[coord] = constraint
	return next, nil
}

func checkIndexBounds(sel IndexSelection, size int64) error {
	inBounds := func(i int) error {
		if int64(i) < 0 || int64(i) >= size {
			return fmt.Errorf("%w: index %d out of bounds for dimension of size %d", ErrInvalidData, i, size)
		}
		return nil
	}
	switch sel.Kind {
	case IndexSingle:
		return inBounds(sel.Single)
	case IndexRange:
		if sel.Start > sel.End {
			return fmt.Errorf("%w: range start %d is after end %d", ErrInvalidData, sel.Start, sel.End)
		}
		if err := inBounds(sel.Start); err != nil {
			return err
		}
		return inBounds(sel.End)
	case IndexStride:
		if sel.Start > sel.End {
			return fmt.Errorf("%w: stride start %d is after end %d", ErrInvalidData, sel.Start, sel.End)
		}
		if err := inBounds(sel.Start); err != nil {
			return err
		}
		return inBounds(sel.End)
	case IndexMultiple:
		for _, i := range sel.Multiple {
			if err := inBounds(i); err != nil {
				return err
			}
		}
	}
	return nil
}

// DasURL emits the bound dataset's .das endpoint.
func (q DatasetQuery) DasURL() string { return q.base.DasURL() }

// DdsURL emits the bound dataset's .dds endpoint.
func (q DatasetQuery) DdsURL() string { return q.base.DdsURL() }

// DodsURL composes the constraint string from every selected variable's
// own dimension order and emits the .dods endpoint. A variable with no
// constrained dimensions renders bare (full extent).
func (q DatasetQuery) DodsURL() (string, error) {
	cb := NewConstraintBuilder()
	for _, v := range q.variables {
		info, err := q.index.VariableInfo(v)
		if err != nil {
			return "", err
		}
		matched := false
		for _, d := range info.Dims {
			if sel, ok := q.constraints[d.Name]; ok {
				cb = cb.appendSelection(v, SelectionFromIndex(sel))
				matched = true
			}
		}
		if !matched {
			cb.constraints = append(cb.constraints, VariableConstraint{Name: v})
		}
	}
	return q.base.DodsURL(cb.Build()), nil
}

// SelectedVariables returns the selected variable names in insertion
// order.
func (q DatasetQuery) SelectedVariables() []string {
	out := make([]string, len(q.variables))
	copy(out, q.variables)
	return out
}

// ActiveConstraints returns a copy of the coordinate-name-to-selection
// map accumulated by SelectByCoordinate.
func (q DatasetQuery) ActiveConstraints() map[string]IndexSelection {
	out := make(map[string]IndexSelection, len(q.constraints))
	for k, v := range q.constraints {
		out[k] = v
	}
	return out
}

// EstimatedSize multiplies each selected variable's scalar width by, for
// every dimension, either the constrained slice length or the full
// dimension size, and sums across the selection.
func (q DatasetQuery) EstimatedSize() (int64, error) {
	var total int64
	for _, v := range q.variables {
		info, err := q.index.VariableInfo(v)
		if err != nil {
			return 0, err
		}
		size := int64(info.ScalarKind.Width())
		for _, d := range info.Dims {
			if sel, ok := q.constraints[d.Name]; ok {
				size *= sel.count()
			} else {
				size *= d.Size
			}
		}
		total += size
	}
	return total, nil
}

// EstimatedSizeString renders EstimatedSize in a human-readable form
// ("220 B", "2.1 KiB").
func (q DatasetQuery) EstimatedSizeString() (string, error) {
	n, err := q.EstimatedSize()
	if err != nil {
		return "", err
	}
	return formatByteSize(n), nil
}

func formatByteSize(n int64) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	units := []string{"KiB", "MiB", "GiB", "TiB"}
	f := float64(n)
	i := -1
	for f >= 1024 && i < len(units)-1 {
		f /= 1024
		i++
	}
	return fmt.Sprintf("%.1f %s", f, units[i])
}
