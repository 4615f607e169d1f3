package dap

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/mpiannucci/go-dap/internal/scan"
)

// DDSNode is the sum type over the four DAP container kinds: Array, Grid,
// Structure, and Sequence. Structure and Sequence own a sequence of
// children that may themselves be any kind; no back-references are needed
// because byte offsets are computed top-down from Dataset.Values.
type DDSNode interface {
	NodeName() string
	ByteCount() int64
	ddsNode()
}

// DimSpec is one `[name = size]` dimension declaration.
type DimSpec struct {
	Name string
	Size int64
}

// ArrayNode is a (possibly 0-D) typed array: `coords` empty means a bare
// scalar field inside a Structure/Sequence.
type ArrayNode struct {
	Name   string
	Scalar ScalarKind
	Coords []DimSpec
}

func (a *ArrayNode) NodeName() string { return a.Name }
func (*ArrayNode) ddsNode()           {}

// ArrayLength is the product of every dimension size; 1 for a 0-D scalar
// field.
func (a *ArrayNode) ArrayLength() int64 {
	length := int64(1)
	for _, d := range a.Coords {
		length *= d.Size
	}
	return length
}

// ByteCount is 8 (the doubled length prefix) plus the element payload.
func (a *ArrayNode) ByteCount() int64 {
	return 8 + a.ArrayLength()*int64(a.Scalar.Width())
}

// GridNode couples a main Array to its coordinate Maps, one per dimension
// of Main, in matching order.
type GridNode struct {
	Name string
	Main *ArrayNode
	Maps []*ArrayNode
}

func (g *GridNode) NodeName() string { return g.Name }
func (*GridNode) ddsNode()           {}

func (g *GridNode) ByteCount() int64 {
	total := g.Main.ByteCount()
	for _, m := range g.Maps {
		total += m.ByteCount()
	}
	return total
}

// CoordOffsets returns, for each map in order, its byte offset relative to
// the start of this Grid's own slot: a strictly increasing sequence
// starting at Main.ByteCount().
func (g *GridNode) CoordOffsets() []int64 {
	offsets := make([]int64, len(g.Maps))
	offset := g.Main.ByteCount()
	for i, m := range g.Maps {
		offsets[i] = offset
		offset += m.ByteCount()
	}
	return offsets
}

// StructureNode is an ordered, arbitrarily nested group of fields.
type StructureNode struct {
	Name   string
	Fields []DDSNode
}

func (s *StructureNode) NodeName() string { return s.Name }
func (*StructureNode) ddsNode()           {}

func (s *StructureNode) ByteCount() int64 {
	var total int64
	for _, f := range s.Fields {
		total += f.ByteCount()
	}
	return total
}

// SequenceNode parses like a Structure but its payload is a record stream
// this core does not decode; ByteCount is kept consistent with the other
// containers for offset arithmetic over variables declared before it.
type SequenceNode struct {
	Name   string
	Fields []DDSNode
}

func (s *SequenceNode) NodeName() string { return s.Name }
func (*SequenceNode) ddsNode()           {}

func (s *SequenceNode) ByteCount() int64 {
	var total int64
	for _, f := range s.Fields {
		total += f.ByteCount()
	}
	return 8 + total
}

// Dataset is the top-level DDS node: a named, ordered list of variables.
// Values ordering is wire-significant; it governs the DODS binary layout.
type Dataset struct {
	Name   string
	Values []DDSNode
}

// findTop returns the top-level node with the given name.
func (d *Dataset) findTop(name string) (DDSNode, bool) {
	for _, v := range d.Values {
		if v.NodeName() == name {
			return v, true
		}
	}
	return nil, false
}

// ByteCount sums the byte count of every top-level value.
func (d *Dataset) ByteCount() int64 {
	var total int64
	for _, v := range d.Values {
		total += v.ByteCount()
	}
	return total
}

// VariableByteOffset returns the byte offset of a top-level variable
// within a DODS binary payload. Per spec, offsets past a Sequence are not
// well-defined and surface ErrNotImplemented.
func (d *Dataset) VariableByteOffset(name string) (int64, error) {
	var offset int64
	sawSequence := false
	for _, v := range d.Values {
		if v.NodeName() == name {
			if sawSequence {
				return 0, fmt.Errorf("%w: byte offset past a Sequence is undefined", ErrNotImplemented)
			}
			return offset, nil
		}
		offset += v.ByteCount()
		if _, ok := v.(*SequenceNode); ok {
			sawSequence = true
		}
	}
	return 0, fmt.Errorf("%w: unknown variable %q", ErrParseError, name)
}

// Validate walks the tree and checks the Grid main/maps name-and-size
// invariant from the data model. It is a separate pass from parsing so the
// grammar itself stays total (spec's "two-phase parse and validate").
func (d *Dataset) Validate() error {
	for _, v := range d.Values {
		if err := validateNode(v); err != nil {
			return err
		}
	}
	return nil
}

func validateNode(n DDSNode) error {
	switch t := n.(type) {
	case *GridNode:
		if len(t.Maps) != len(t.Main.Coords) {
			return fmt.Errorf("%w: grid %q has %d maps but %d coordinates", ErrParseError, t.Name, len(t.Maps), len(t.Main.Coords))
		}
		for i, m := range t.Maps {
			coord := t.Main.Coords[i]
			if m.Name != coord.Name {
				return fmt.Errorf("%w: grid %q map %d name %q does not match coordinate %q", ErrParseError, t.Name, i, m.Name, coord.Name)
			}
			if m.ArrayLength() != coord.Size {
				return fmt.Errorf("%w: grid %q map %q length %d does not match coordinate size %d", ErrParseError, t.Name, m.Name, m.ArrayLength(), coord.Size)
			}
		}
	case *StructureNode:
		for _, f := range t.Fields {
			if err := validateNode(f); err != nil {
				return err
			}
		}
	case *SequenceNode:
		for _, f := range t.Fields {
			if err := validateNode(f); err != nil {
				return err
			}
		}
	}
	return nil
}

// ParseDDS parses a complete `Dataset { ... } name;` block.
func ParseDDS(text string) (*Dataset, error) {
	c := scan.New(text)
	if err := c.Expect("Dataset"); err != nil {
		return nil, wrapParseErr(err)
	}
	if err := c.Expect("{"); err != nil {
		return nil, wrapParseErr(err)
	}
	values, err := parseValueList(c)
	if err != nil {
		return nil, err
	}
	if err := c.Expect("}"); err != nil {
		return nil, wrapParseErr(err)
	}
	name, err := c.TakeIdent()
	if err != nil {
		return nil, wrapParseErr(err)
	}
	if err := c.Expect(";"); err != nil {
		return nil, wrapParseErr(err)
	}
	return &Dataset{Name: name, Values: values}, nil
}

func wrapParseErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrParseError, err)
}

func parseValueList(c *scan.Cursor) ([]DDSNode, error) {
	var values []DDSNode
	for {
		c.SkipWhitespace()
		if c.HasPrefix("}") || c.Eof() {
			break
		}
		node, err := parseValue(c)
		if err != nil {
			return nil, err
		}
		values = append(values, node)
	}
	return values, nil
}

// parseValue tries Grid, Structure, and Sequence before falling back to a
// scalar Array, as the grammar requires for disambiguation.
func parseValue(c *scan.Cursor) (DDSNode, error) {
	c.SkipWhitespace()
	switch {
	case c.HasPrefix("Grid"):
		return parseGrid(c)
	case c.HasPrefix("Structure"):
		return parseStructure(c)
	case c.HasPrefix("Sequence"):
		return parseSequence(c)
	default:
		return parseArray(c)
	}
}

func parseArray(c *scan.Cursor) (*ArrayNode, error) {
	kindTok, err := c.TakeIdent()
	if err != nil {
		return nil, wrapParseErr(err)
	}
	kind, err := ParseScalarKind(kindTok)
	if err != nil {
		return nil, err
	}
	name, err := c.TakeIdent()
	if err != nil {
		return nil, wrapParseErr(err)
	}
	coords, err := parseDimList(c)
	if err != nil {
		return nil, err
	}
	if err := c.Expect(";"); err != nil {
		return nil, wrapParseErr(err)
	}
	return &ArrayNode{Name: name, Scalar: kind, Coords: coords}, nil
}

func parseDimList(c *scan.Cursor) ([]DimSpec, error) {
	var dims []DimSpec
	for {
		c.SkipWhitespace()
		if !c.HasPrefix("[") {
			break
		}
		if err := c.Expect("["); err != nil {
			return nil, wrapParseErr(err)
		}
		dimName, err := c.TakeIdent()
		if err != nil {
			return nil, wrapParseErr(err)
		}
		if err := c.Expect("="); err != nil {
			return nil, wrapParseErr(err)
		}
		size, err := c.TakeUint()
		if err != nil {
			return nil, wrapParseErr(err)
		}
		if err := c.Expect("]"); err != nil {
			return nil, wrapParseErr(err)
		}
		dims = append(dims, DimSpec{Name: dimName, Size: int64(size)})
	}
	return dims, nil
}

func parseGrid(c *scan.Cursor) (*GridNode, error) {
	if err := c.Expect("Grid"); err != nil {
		return nil, wrapParseErr(err)
	}
	if err := c.Expect("{"); err != nil {
		return nil, wrapParseErr(err)
	}
	if err := c.Expect("ARRAY:"); err != nil {
		return nil, wrapParseErr(err)
	}
	main, err := parseArray(c)
	if err != nil {
		return nil, err
	}
	if err := c.Expect("MAPS:"); err != nil {
		return nil, wrapParseErr(err)
	}
	var maps []*ArrayNode
	for {
		c.SkipWhitespace()
		if c.HasPrefix("}") {
			break
		}
		m, err := parseArray(c)
		if err != nil {
			return nil, err
		}
		maps = append(maps, m)
	}
	if err := c.Expect("}"); err != nil {
		return nil, wrapParseErr(err)
	}
	name, err := c.TakeIdent()
	if err != nil {
		return nil, wrapParseErr(err)
	}
	if err := c.Expect(";"); err != nil {
		return nil, wrapParseErr(err)
	}
	return &GridNode{Name: name, Main: main, Maps: maps}, nil
}

func parseStructure(c *scan.Cursor) (*StructureNode, error) {
	if err := c.Expect("Structure"); err != nil {
		return nil, wrapParseErr(err)
	}
	fields, err := parseFieldList(c)
	if err != nil {
		return nil, err
	}
	name, err := c.TakeIdent()
	if err != nil {
		return nil, wrapParseErr(err)
	}
	if err := c.Expect(";"); err != nil {
		return nil, wrapParseErr(err)
	}
	return &StructureNode{Name: name, Fields: fields}, nil
}

func parseSequence(c *scan.Cursor) (*SequenceNode, error) {
	if err := c.Expect("Sequence"); err != nil {
		return nil, wrapParseErr(err)
	}
	fields, err := parseFieldList(c)
	if err != nil {
		return nil, err
	}
	name, err := c.TakeIdent()
	if err != nil {
		return nil, wrapParseErr(err)
	}
	if err := c.Expect(";"); err != nil {
		return nil, wrapParseErr(err)
	}
	return &SequenceNode{Name: name, Fields: fields}, nil
}

func parseFieldList(c *scan.Cursor) ([]DDSNode, error) {
	if err := c.Expect("{"); err != nil {
		return nil, wrapParseErr(err)
	}
	var fields []DDSNode
	for {
		c.SkipWhitespace()
		if c.HasPrefix("}") {
			break
		}
		f, err := parseValue(c)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	if err := c.Expect("}"); err != nil {
		return nil, wrapParseErr(err)
	}
	return fields, nil
}

// allDimNames collects every dimension name that appears anywhere beneath
// a node, used by the metadata index's coordinate enumeration.
func allDimNames(n DDSNode) []string {
	switch t := n.(type) {
	case *ArrayNode:
		return lo.Map(t.Coords, func(d DimSpec, _ int) string { return d.Name })
	case *GridNode:
		return allDimNames(t.Main)
	case *StructureNode:
		var names []string
		for _, f := range t.Fields {
			names = append(names, allDimNames(f)...)
		}
		return names
	case *SequenceNode:
		var names []string
		for _, f := range t.Fields {
			names = append(names, allDimNames(f)...)
		}
		return names
	default:
		return nil
	}
}
