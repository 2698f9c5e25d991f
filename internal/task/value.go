// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package task

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

var (
	// ErrMalformedLiteral is returned when a value literal has unbalanced braces or quotes.
	ErrMalformedLiteral = errors.New("malformed value literal")
	// ErrMalformedNumber is returned when a token that starts like a number is not one.
	ErrMalformedNumber = errors.New("malformed number")
	// ErrShapeMismatch is returned when array data does not fill its shape.
	ErrShapeMismatch = errors.New("array data does not match shape")
)

// Kind tells which field of a Value is set.
type Kind uint8

// Value kinds.
const (
	KindNumber Kind = iota
	KindText
	KindList
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindList:
		return "list"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Value is a single result value.
// Arrays are rectangular and numeric, stored row-major in Data.
// Lists hold anything else, including ragged nesting and mixed text and numbers.
type Value struct {
	Kind   Kind
	Number float64
	Text   string
	List   []Value
	Shape  []int
	Data   []float64
}

// Number returns a numeric Value.
func Number(f float64) Value {
	return Value{Kind: KindNumber, Number: f}
}

// Text returns a text Value.
func Text(s string) Value {
	return Value{Kind: KindText, Text: s}
}

// List returns a list Value.
func List(vs ...Value) Value {
	return Value{Kind: KindList, List: vs}
}

// Vector returns a one dimensional array.
func Vector(data ...float64) Value {
	return Value{Kind: KindArray, Shape: []int{len(data)}, Data: data}
}

// Array returns an array with the given shape. len(data) must equal the product of shape.
func Array(shape []int, data []float64) (Value, error) {
	n := 1
	for _, d := range shape {
		n *= d
	}

	if len(shape) == 0 || n != len(data) {
		return Value{}, fmt.Errorf("%w: shape %v holds %d elements, got %d", ErrShapeMismatch, shape, n, len(data))
	}

	return Value{Kind: KindArray, Shape: slices.Clone(shape), Data: data}, nil
}

// Matrix returns a two dimensional array from rows of equal length.
func Matrix(rows [][]float64) (Value, error) {
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}

	data := make([]float64, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return Value{}, fmt.Errorf("%w: row %d has %d columns, want %d", ErrShapeMismatch, i, len(r), cols)
		}

		data = append(data, r...)
	}

	return Array([]int{len(rows), cols}, data)
}

// Dims returns the number of array dimensions, 0 for non arrays.
func (v Value) Dims() int {
	if v.Kind != KindArray {
		return 0
	}

	return len(v.Shape)
}

// Equal reports whether v and o hold the same value. NaN equals NaN.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}

	switch v.Kind {
	case KindNumber:
		return floatEqual(v.Number, o.Number)
	case KindText:
		return v.Text == o.Text
	case KindList:
		return slices.EqualFunc(v.List, o.List, Value.Equal)
	case KindArray:
		return slices.Equal(v.Shape, o.Shape) && slices.EqualFunc(v.Data, o.Data, floatEqual)
	}

	return false
}

func floatEqual(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}

// String renders v in the literal syntax accepted by ParseValue.
func (v Value) String() string {
	var sb strings.Builder

	v.write(&sb)

	return sb.String()
}

func (v Value) write(sb *strings.Builder) {
	switch v.Kind {
	case KindNumber:
		sb.WriteString(strconv.FormatFloat(v.Number, 'g', -1, 64))
	case KindText:
		sb.WriteString(strconv.Quote(v.Text))
	case KindList:
		sb.WriteByte('{')

		for i, e := range v.List {
			if i > 0 {
				sb.WriteString(", ")
			}

			e.write(sb)
		}

		sb.WriteByte('}')
	case KindArray:
		writeArray(sb, v.Shape, v.Data)
	}
}

func writeArray(sb *strings.Builder, shape []int, data []float64) {
	sb.WriteByte('{')

	if len(shape) == 1 {
		for i, f := range data {
			if i > 0 {
				sb.WriteString(", ")
			}

			sb.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
		}
	} else if shape[0] > 0 {
		stride := len(data) / shape[0]
		for i := range shape[0] {
			if i > 0 {
				sb.WriteString(", ")
			}

			writeArray(sb, shape[1:], data[i*stride:(i+1)*stride])
		}
	}

	sb.WriteByte('}')
}

// ParseValue decodes a literal as printed by the simulator:
// a number, a quoted string, a bare word, or a brace list such as {{1, 2}, {3, 4}}.
// Rectangular numeric brace lists become arrays, anything else becomes a list.
func ParseValue(lit string) (Value, error) {
	p := &literalParser{src: strings.TrimSpace(lit)}

	n, err := p.node()
	if err != nil {
		return Value{}, err
	}

	p.skipSpace()

	if p.pos != len(p.src) {
		return Value{}, fmt.Errorf("%w: unexpected %q at offset %d", ErrMalformedLiteral, p.src[p.pos:], p.pos)
	}

	return n.value(), nil
}

// node is the parse tree of a literal: either a leaf value or a brace group.
type node struct {
	leaf     *Value
	children []node
}

func (n node) value() Value {
	if n.leaf != nil {
		return *n.leaf
	}

	if shape, ok := n.shape(); ok {
		data := make([]float64, 0, len(n.children))
		n.flatten(&data)

		return Value{Kind: KindArray, Shape: shape, Data: data}
	}

	vs := make([]Value, len(n.children))
	for i, c := range n.children {
		vs[i] = c.value()
	}

	return List(vs...)
}

// shape returns the array shape of a brace group whose leaves are all numbers
// and whose siblings all share one shape.
func (n node) shape() ([]int, bool) {
	if n.leaf != nil {
		return nil, n.leaf.Kind == KindNumber
	}

	if len(n.children) == 0 {
		return []int{0}, true
	}

	first, ok := n.children[0].shape()
	if !ok {
		return nil, false
	}

	for _, c := range n.children[1:] {
		s, ok := c.shape()
		if !ok || !slices.Equal(s, first) {
			return nil, false
		}
	}

	return append([]int{len(n.children)}, first...), true
}

func (n node) flatten(out *[]float64) {
	if n.leaf != nil {
		*out = append(*out, n.leaf.Number)
		return
	}

	for _, c := range n.children {
		c.flatten(out)
	}
}

type literalParser struct {
	src string
	pos int
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.src) && strings.ContainsRune(" \t\r\n", rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *literalParser) node() (node, error) {
	p.skipSpace()

	if p.pos >= len(p.src) {
		return node{}, fmt.Errorf("%w: empty value", ErrMalformedLiteral)
	}

	switch p.src[p.pos] {
	case '{':
		return p.group()
	case '"':
		return p.quoted()
	default:
		return p.bare()
	}
}

func (p *literalParser) group() (node, error) {
	p.pos++ // {

	n := node{children: []node{}}

	p.skipSpace()

	if p.pos < len(p.src) && p.src[p.pos] == '}' {
		p.pos++
		return n, nil
	}

	for {
		c, err := p.node()
		if err != nil {
			return node{}, err
		}

		n.children = append(n.children, c)

		p.skipSpace()

		if p.pos >= len(p.src) {
			return node{}, fmt.Errorf("%w: missing closing brace", ErrMalformedLiteral)
		}

		switch p.src[p.pos] {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return n, nil
		default:
			return node{}, fmt.Errorf("%w: unexpected %q at offset %d", ErrMalformedLiteral, p.src[p.pos], p.pos)
		}
	}
}

func (p *literalParser) quoted() (node, error) {
	start := p.pos
	p.pos++ // opening quote

	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '\\':
			p.pos += 2
		case '"':
			p.pos++

			s, err := strconv.Unquote(p.src[start:p.pos])
			if err != nil {
				// Windows paths are printed with single backslashes.
				s = p.src[start+1 : p.pos-1]
			}

			v := Text(s)

			return node{leaf: &v}, nil
		default:
			p.pos++
		}
	}

	return node{}, fmt.Errorf("%w: unterminated string", ErrMalformedLiteral)
}

func (p *literalParser) bare() (node, error) {
	start := p.pos
	for p.pos < len(p.src) && !strings.ContainsRune(",{}\"", rune(p.src[p.pos])) {
		p.pos++
	}

	tok := strings.TrimSpace(p.src[start:p.pos])
	if tok == "" {
		return node{}, fmt.Errorf("%w: empty element at offset %d", ErrMalformedLiteral, start)
	}

	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		v := Number(f)
		return node{leaf: &v}, nil
	}

	if strings.ContainsRune("0123456789+-.", rune(tok[0])) {
		return node{}, fmt.Errorf("%w: %q", ErrMalformedNumber, tok)
	}

	// References and enum words such as Main.Model.Seg or On are kept as text.
	v := Text(tok)

	return node{leaf: &v}, nil
}
