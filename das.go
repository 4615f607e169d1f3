package dap

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mpiannucci/go-dap/internal/scan"
)

// GlobalAttributesKey is the reserved variable name that collects
// attributes appearing at the top level of a DAS block, outside any
// per-variable subblock. It is a convention, not a protocol requirement.
const GlobalAttributesKey = "__global__"

// Attribute is one typed DAS attribute line.
type Attribute struct {
	Kind  ScalarKind
	Name  string
	Value ScalarValue
}

// String renders the attribute as a DAS attribute line: kind, name, the
// value as formatted by ScalarValue.String, and a trailing semicolon.
func (a Attribute) String() string {
	return fmt.Sprintf("%s %s %s;", a.Kind, a.Name, a.Value.String())
}

// Attributes maps variable name to a map of attribute name to Attribute.
type Attributes map[string]map[string]Attribute

// ParseDAS parses a complete `Attributes { ... }` block.
func ParseDAS(text string) (Attributes, error) {
	c := scan.New(text)
	if err := c.Expect("Attributes"); err != nil {
		return nil, wrapParseErr(err)
	}
	if err := c.Expect("{"); err != nil {
		return nil, wrapParseErr(err)
	}
	attrs := Attributes{}
	for {
		c.SkipWhitespace()
		if c.HasPrefix("}") || c.Eof() {
			break
		}
		if err := parseDASItem(c, attrs); err != nil {
			return nil, err
		}
	}
	if err := c.Expect("}"); err != nil {
		return nil, wrapParseErr(err)
	}
	return attrs, nil
}

func parseDASItem(c *scan.Cursor, attrs Attributes) error {
	c.SkipWhitespace()
	firstTok, err := c.TakeIdent()
	if err != nil {
		return wrapParseErr(err)
	}
	c.SkipWhitespace()
	if c.HasPrefix("{") {
		return parseDASVariableBlock(c, attrs, firstTok)
	}
	// Not a variable block: firstTok is the scalar kind of a loose,
	// top-level attribute that belongs in the global bucket.
	attr, err := parseDASAttributeBody(c, firstTok)
	if err != nil {
		return err
	}
	bucket := attrs[GlobalAttributesKey]
	if bucket == nil {
		bucket = map[string]Attribute{}
	}
	bucket[attr.Name] = attr
	attrs[GlobalAttributesKey] = bucket
	return nil
}

func parseDASVariableBlock(c *scan.Cursor, attrs Attributes, varName string) error {
	if err := c.Expect("{"); err != nil {
		return wrapParseErr(err)
	}
	bucket := attrs[varName]
	if bucket == nil {
		bucket = map[string]Attribute{}
	}
	for {
		c.SkipWhitespace()
		if c.HasPrefix("}") {
			break
		}
		kindTok, err := c.TakeIdent()
		if err != nil {
			return wrapParseErr(err)
		}
		attr, err := parseDASAttributeBody(c, kindTok)
		if err != nil {
			return err
		}
		bucket[attr.Name] = attr
	}
	if err := c.Expect("}"); err != nil {
		return wrapParseErr(err)
	}
	attrs[varName] = bucket
	return nil
}

// parseDASAttributeBody parses the name and raw value of an attribute
// line whose scalar-kind token has already been consumed as kindTok.
func parseDASAttributeBody(c *scan.Cursor, kindTok string) (Attribute, error) {
	kind, err := ParseScalarKind(kindTok)
	if err != nil {
		return Attribute{}, err
	}
	name, err := c.TakeIdent()
	if err != nil {
		return Attribute{}, wrapParseErr(err)
	}
	raw, err := c.TakeUntilByte(';')
	if err != nil {
		return Attribute{}, wrapParseErr(err)
	}
	value, err := parseDASValue(kind, strings.TrimSpace(raw))
	if err != nil {
		return Attribute{}, err
	}
	return Attribute{Kind: kind, Name: name, Value: value}, nil
}

func parseDASValue(kind ScalarKind, raw string) (ScalarValue, error) {
	switch kind {
	case KindString, KindURL:
		s := raw
		if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
			s = s[1 : len(s)-1]
		}
		if kind == KindString {
			return NewStringValue(s), nil
		}
		return NewURLValue(s), nil
	case KindFloat32, KindFloat64:
		f, err := parseDASFloat(raw)
		if err != nil {
			return ScalarValue{}, newInvalidAttributeValue(raw)
		}
		if kind == KindFloat32 {
			return NewFloat32Value(float32(f)), nil
		}
		return NewFloat64Value(f), nil
	default:
		return parseDASInt(kind, raw)
	}
}

func parseDASFloat(raw string) (float64, error) {
	switch strings.ToLower(raw) {
	case "nan", "-nan":
		return math.NaN(), nil
	case "inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	}
	return strconv.ParseFloat(raw, 64)
}

func parseDASInt(kind ScalarKind, raw string) (ScalarValue, error) {
	i, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return ScalarValue{}, newInvalidAttributeValue(raw)
	}
	switch kind {
	case KindByte:
		if i < math.MinInt8 || i > math.MaxInt8 {
			return ScalarValue{}, newInvalidAttributeValue(raw)
		}
		return NewByteValue(int8(i)), nil
	case KindInt16:
		if i < math.MinInt16 || i > math.MaxInt16 {
			return ScalarValue{}, newInvalidAttributeValue(raw)
		}
		return NewInt16Value(int16(i)), nil
	case KindUInt16:
		if i < 0 || i > math.MaxUint16 {
			return ScalarValue{}, newInvalidAttributeValue(raw)
		}
		return NewUInt16Value(uint16(i)), nil
	case KindInt32:
		if i < math.MinInt32 || i > math.MaxInt32 {
			return ScalarValue{}, newInvalidAttributeValue(raw)
		}
		return NewInt32Value(int32(i)), nil
	case KindUInt32:
		if i < 0 || i > math.MaxUint32 {
			return ScalarValue{}, newInvalidAttributeValue(raw)
		}
		return NewUInt32Value(uint32(i)), nil
	default:
		return ScalarValue{}, fmt.Errorf("%w: unexpected integer attribute kind %s", ErrParseError, kind)
	}
}
