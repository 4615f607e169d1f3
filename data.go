package dap

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// dataMarker is the literal separator between DDS text and the big-endian
// binary section of a DODS payload.
const dataMarker = "Data:"

// DataArray is a decoded, eagerly-materialized typed array: one element
// per position, each carrying the scalar kind it was decoded as.
type DataArray struct {
	Kind  ScalarKind
	Elems []ScalarValue
}

func (a DataArray) Len() int { return len(a.Elems) }

func (a DataArray) AsInt32s() ([]int32, error) {
	out := make([]int32, len(a.Elems))
	for i, e := range a.Elems {
		v, err := e.AsInt32()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (a DataArray) AsInt64s() ([]int64, error) {
	out := make([]int64, len(a.Elems))
	for i, e := range a.Elems {
		v, err := e.AsInt64()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (a DataArray) AsFloat32s() ([]float32, error) {
	out := make([]float32, len(a.Elems))
	for i, e := range a.Elems {
		v, err := e.AsFloat32()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (a DataArray) AsFloat64s() ([]float64, error) {
	out := make([]float64, len(a.Elems))
	for i, e := range a.Elems {
		v, err := e.AsFloat64()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// CoordArray is one decoded Grid map: its dimension name paired with the
// decoded coordinate values.
type CoordArray struct {
	Name string
	Data DataArray
}

// Decoder computes per-variable byte offsets from a Dataset and decodes
// the big-endian binary section of a DODS payload that follows it. The
// decoder borrows the payload slice; no iterator it produces may outlive
// that slice.
type Decoder struct {
	dataset *Dataset
	payload []byte
}

// NewDecoder locates the Data: separator in raw and binds the remaining
// bytes as the binary payload for dataset. raw tolerates a run of
// \r, \n, or space bytes after the literal "Data:" marker.
func NewDecoder(dataset *Dataset, raw []byte) (*Decoder, error) {
	idx := bytes.Index(raw, []byte(dataMarker))
	if idx < 0 {
		return nil, fmt.Errorf("%w: missing %q separator", ErrInvalidData, dataMarker)
	}
	pos := idx + len(dataMarker)
	for pos < len(raw) {
		switch raw[pos] {
		case '\r', '\n', ' ':
			pos++
		default:
			goto done
		}
	}
done:
	return &Decoder{dataset: dataset, payload: raw[pos:]}, nil
}

// VariableData decodes a top-level Array, or the main array of a
// top-level Grid, into an eager DataArray.
func (d *Decoder) VariableData(name string) (DataArray, error) {
	node, ok := d.dataset.findTop(name)
	if !ok {
		return DataArray{}, fmt.Errorf("%w: unknown variable %q", ErrParseError, name)
	}
	offset, err := d.dataset.VariableByteOffset(name)
	if err != nil {
		return DataArray{}, err
	}
	switch t := node.(type) {
	case *ArrayNode:
		return d.decodeArrayAt(offset, t)
	case *GridNode:
		return d.decodeArrayAt(offset, t.Main)
	case *SequenceNode:
		return DataArray{}, fmt.Errorf("%w: sequence record decode for %q", ErrNotImplemented, name)
	default:
		return DataArray{}, fmt.Errorf("%w: %q is not array-decodable", ErrInvalidTypecast, name)
	}
}

// VariableCoords decodes the coordinate maps of a top-level Grid, in
// declaration order.
func (d *Decoder) VariableCoords(name string) ([]CoordArray, error) {
	node, ok := d.dataset.findTop(name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown variable %q", ErrParseError, name)
	}
	grid, ok := node.(*GridNode)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a Grid", ErrInvalidTypecast, name)
	}
	offset, err := d.dataset.VariableByteOffset(name)
	if err != nil {
		return nil, err
	}
	coordOffsets := grid.CoordOffsets()
	coords := make([]CoordArray, len(grid.Maps))
	for i, m := range grid.Maps {
		da, err := d.decodeArrayAt(offset+coordOffsets[i], m)
		if err != nil {
			return nil, err
		}
		coords[i] = CoordArray{Name: m.Name, Data: da}
	}
	return coords, nil
}

func (d *Decoder) decodeArrayAt(offset int64, a *ArrayNode) (DataArray, error) {
	if !a.Scalar.IsNumeric() {
		return DataArray{}, fmt.Errorf("%w: string array decode for %q", ErrNotImplemented, a.Name)
	}
	n, start, err := d.readLengthHeader(offset, a.Name)
	if err != nil {
		return DataArray{}, err
	}
	width := int64(a.Scalar.Width())
	end := start + n*width
	if end > int64(len(d.payload)) {
		return DataArray{}, fmt.Errorf("%w: payload truncated for %q", ErrInvalidData, a.Name)
	}
	elems := make([]ScalarValue, n)
	for i := int64(0); i < n; i++ {
		elems[i] = decodeScalar(a.Scalar, d.payload[start+i*width:start+(i+1)*width])
	}
	return DataArray{Kind: a.Scalar, Elems: elems}, nil
}

// readLengthHeader reads and validates the doubled u32 length prefix at
// offset, returning the element count and the byte position immediately
// following the header.
func (d *Decoder) readLengthHeader(offset int64, name string) (int64, int64, error) {
	if offset+8 > int64(len(d.payload)) {
		return 0, 0, fmt.Errorf("%w: payload too short for %q header", ErrInvalidData, name)
	}
	n1 := binary.BigEndian.Uint32(d.payload[offset : offset+4])
	n2 := binary.BigEndian.Uint32(d.payload[offset+4 : offset+8])
	if n1 != n2 {
		return 0, 0, fmt.Errorf("%w: length header mismatch for %q (%d != %d)", ErrInvalidData, name, n1, n2)
	}
	return int64(n1), offset + 8, nil
}

func decodeScalar(kind ScalarKind, raw []byte) ScalarValue {
	switch kind {
	case KindByte:
		return NewByteValue(int8(raw[0]))
	case KindInt16:
		return NewInt16Value(int16(binary.BigEndian.Uint16(raw)))
	case KindUInt16:
		return NewUInt16Value(binary.BigEndian.Uint16(raw))
	case KindInt32:
		return NewInt32Value(int32(binary.BigEndian.Uint32(raw)))
	case KindUInt32:
		return NewUInt32Value(binary.BigEndian.Uint32(raw))
	case KindFloat32:
		return NewFloat32Value(math.Float32frombits(binary.BigEndian.Uint32(raw)))
	case KindFloat64:
		return NewFloat64Value(math.Float64frombits(binary.BigEndian.Uint64(raw)))
	default:
		return ScalarValue{Kind: kind}
	}
}

// DataIterator is a single-pass, finite, non-restartable cursor over the
// scalar values of one Array or Grid-main variable. It copies nothing but
// its position and scalar kind; the payload it was built over must outlive
// it.
type DataIterator struct {
	payload   []byte
	pos       int64
	remaining int64
	kind      ScalarKind
}

// VariableDataIter returns a streaming iterator over a numeric Array, or
// the main array of a Grid.
func (d *Decoder) VariableDataIter(name string) (*DataIterator, error) {
	node, ok := d.dataset.findTop(name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown variable %q", ErrParseError, name)
	}
	var arr *ArrayNode
	switch t := node.(type) {
	case *ArrayNode:
		arr = t
	case *GridNode:
		arr = t.Main
	case *SequenceNode:
		return nil, fmt.Errorf("%w: sequence record decode for %q", ErrNotImplemented, name)
	default:
		return nil, fmt.Errorf("%w: %q has no scalar iterator", ErrInvalidTypecast, name)
	}
	if !arr.Scalar.IsNumeric() {
		return nil, fmt.Errorf("%w: string array iteration for %q", ErrNotImplemented, name)
	}
	offset, err := d.dataset.VariableByteOffset(name)
	if err != nil {
		return nil, err
	}
	n, start, err := d.readLengthHeader(offset, name)
	if err != nil {
		return nil, err
	}
	return &DataIterator{payload: d.payload, pos: start, remaining: n, kind: arr.Scalar}, nil
}

// Next yields the next scalar value, or ok=false once the iterator is
// exhausted.
func (it *DataIterator) Next() (value ScalarValue, ok bool, err error) {
	if it.remaining <= 0 {
		return ScalarValue{}, false, nil
	}
	width := int64(it.kind.Width())
	if it.pos+width > int64(len(it.payload)) {
		return ScalarValue{}, false, fmt.Errorf("%w: iterator exhausted before declared length", ErrInvalidData)
	}
	v := decodeScalar(it.kind, it.payload[it.pos:it.pos+width])
	it.pos += width
	it.remaining--
	return v, true, nil
}

// Remaining reports how many elements are left to yield.
func (it *DataIterator) Remaining() int64 { return it.remaining }
