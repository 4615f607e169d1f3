package dap

import (
	"fmt"

	"github.com/samber/lo"
)

// VariableType names the DDS container kind a variable resolves to.
type VariableType string

const (
	VarArray     VariableType = "Array"
	VarGrid      VariableType = "Grid"
	VarStructure VariableType = "Structure"
	VarSequence  VariableType = "Sequence"
)

// VariableInfo is the per-variable projection returned by the metadata
// index: its container kind, scalar type, and dimension order. Structure
// and Sequence have no fixed scalar type or dimensions, so ScalarKind is
// reported as String and CoordNames/Dims are empty.
type VariableInfo struct {
	Type       VariableType
	ScalarKind ScalarKind
	CoordNames []string
	Dims       []DimSpec
}

// CoordinateInfo is the per-dimension projection: its common size, the
// scalar kind of the coordinate's own array declaration (if any), and the
// variables that reference it.
type CoordinateInfo struct {
	ScalarKind ScalarKind
	Size       int64
	UsedBy     []string
}

// MetadataIndex is a read-only view over a parsed Dataset.
type MetadataIndex struct {
	dataset *Dataset
}

// NewMetadataIndex validates the dataset's Grid invariants and wraps it in
// a read-only metadata view.
func NewMetadataIndex(d *Dataset) (*MetadataIndex, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &MetadataIndex{dataset: d}, nil
}

// ListVariables returns variable names in declaration order.
func (m *MetadataIndex) ListVariables() []string {
	names := make([]string, 0, len(m.dataset.Values))
	for _, v := range m.dataset.Values {
		names = append(names, v.NodeName())
	}
	return names
}

// ListCoordinates returns the union of dimension names used anywhere in
// the dataset. Order is unspecified.
func (m *MetadataIndex) ListCoordinates() []string {
	var all []string
	for _, v := range m.dataset.Values {
		all = append(all, allDimNames(v)...)
	}
	return lo.Uniq(all)
}

func (m *MetadataIndex) findVariable(name string) (DDSNode, bool) {
	for _, v := range m.dataset.Values {
		if v.NodeName() == name {
			return v, true
		}
	}
	return nil, false
}

// VariableInfo reports shape and type for a top-level variable.
func (m *MetadataIndex) VariableInfo(name string) (VariableInfo, error) {
	node, ok := m.findVariable(name)
	if !ok {
		return VariableInfo{}, fmt.Errorf("%w: unknown variable %q", ErrParseError, name)
	}
	switch t := node.(type) {
	case *ArrayNode:
		return VariableInfo{
			Type:       VarArray,
			ScalarKind: t.Scalar,
			CoordNames: lo.Map(t.Coords, func(d DimSpec, _ int) string { return d.Name }),
			Dims:       t.Coords,
		}, nil
	case *GridNode:
		return VariableInfo{
			Type:       VarGrid,
			ScalarKind: t.Main.Scalar,
			CoordNames: lo.Map(t.Main.Coords, func(d DimSpec, _ int) string { return d.Name }),
			Dims:       t.Main.Coords,
		}, nil
	case *StructureNode:
		return VariableInfo{Type: VarStructure, ScalarKind: KindString}, nil
	case *SequenceNode:
		return VariableInfo{Type: VarSequence, ScalarKind: KindString}, nil
	default:
		return VariableInfo{}, fmt.Errorf("%w: unrecognized node for %q", ErrInvalidTypecast, name)
	}
}

// CoordinateInfo reports the common size asserted by every variable that
// references dimension name, its scalar kind (taken from the coordinate's
// own self-named array declaration, if one exists), and the variables that
// use it. The index does not cross-check sizes across variables; that is
// a server contract.
func (m *MetadataIndex) CoordinateInfo(name string) (CoordinateInfo, error) {
	var usedBy []string
	var size int64
	sizeFound := false
	for _, v := range m.dataset.Values {
		if lo.Contains(allDimNames(v), name) {
			usedBy = append(usedBy, v.NodeName())
			if !sizeFound {
				if s, ok := dimSize(v, name); ok {
					size = s
					sizeFound = true
				}
			}
		}
	}
	if !sizeFound {
		return CoordinateInfo{}, fmt.Errorf("%w: unknown coordinate %q", ErrParseError, name)
	}
	kind := KindFloat64
	if arr, ok := m.dataset.findArray(name); ok {
		kind = arr.Scalar
	}
	return CoordinateInfo{ScalarKind: kind, Size: size, UsedBy: usedBy}, nil
}

// HasVariable reports whether name is a top-level variable.
func (m *MetadataIndex) HasVariable(name string) bool {
	_, ok := m.findVariable(name)
	return ok
}

// HasCoordinate reports whether name is used as a dimension anywhere.
func (m *MetadataIndex) HasCoordinate(name string) bool {
	return lo.Contains(m.ListCoordinates(), name)
}

func dimSize(node DDSNode, name string) (int64, bool) {
	switch t := node.(type) {
	case *ArrayNode:
		for _, d := range t.Coords {
			if d.Name == name {
				return d.Size, true
			}
		}
	case *GridNode:
		return dimSize(t.Main, name)
	case *StructureNode:
		for _, f := range t.Fields {
			if s, ok := dimSize(f, name); ok {
				return s, ok
			}
		}
	case *SequenceNode:
		for _, f := range t.Fields {
			if s, ok := dimSize(f, name); ok {
				return s, ok
			}
		}
	}
	return 0, false
}

// findArray locates a self-named coordinate array declaration (the
// canonical scalar-kind source for a dimension): a top-level Array, a
// Grid map, or an Array nested in a Structure/Sequence whose own Name
// equals the dimension name being looked up.
func (d *Dataset) findArray(name string) (*ArrayNode, bool) {
	for _, v := range d.Values {
		if found, ok := findArrayByName(v, name); ok {
			return found, true
		}
	}
	return nil, false
}

func findArrayByName(node DDSNode, name string) (*ArrayNode, bool) {
	switch t := node.(type) {
	case *ArrayNode:
		if t.Name == name {
			return t, true
		}
	case *GridNode:
		if t.Main.Name == name {
			return t.Main, true
		}
		for _, mp := range t.Maps {
			if mp.Name == name {
				return mp, true
			}
		}
	case *StructureNode:
		for _, f := range t.Fields {
			if found, ok := findArrayByName(f, name); ok {
				return found, true
			}
		}
	case *SequenceNode:
		for _, f := range t.Fields {
			if found, ok := findArrayByName(f, name); ok {
				return found, true
			}
		}
	}
	return nil, false
}
