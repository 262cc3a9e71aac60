// Package jagged implements the grammar used by the -t, -x and -A CLI
// flags:
//
//	array  := '[' row (',' row)* ']'
//	       |  '[' item (',' item)* ']'
//	row    := '[' item (',' item)* ']'
//	item   := INT | INT '...' INT      # inclusive range
//
// A flat array (no nested brackets) parses to a single row. Ranges are
// expanded eagerly into their constituent ints — the data model (rank
// mapper, backoff arrays) only ever needs concrete per-position values,
// never the range notation itself.
package jagged

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/maemo32/ccbench/internal/ccbench/ccerr"
)

// Array is a parsed jagged array: one or more rows of ints.
type Array [][]int

// Parse parses s per the grammar above.
func Parse(s string) (Array, error) {
	p := &parser{src: s}
	p.skipSpace()
	if !p.consume('[') {
		return nil, ccerr.NewConfigError("jagged.Parse", "expected '[' at start of %q", s)
	}
	arr, err := p.parseArrayBody()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.consume(']') {
		return nil, ccerr.NewConfigError("jagged.Parse", "expected ']' closing %q", s)
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, ccerr.NewConfigError("jagged.Parse", "trailing garbage in %q", s)
	}
	return arr, nil
}

// Serialize renders a canonical textual form: a single row prints flat
// ([1,2,3]); multiple rows print nested ([[1,2],[3]]). Ranges are never
// reconstructed — Parse(Serialize(a)) == a always holds, which is the
// stronger property the rank mapper and CLI round-trip tests rely on.
func Serialize(a Array) string {
	if len(a) == 1 {
		return serializeRow(a[0])
	}
	rows := make([]string, len(a))
	for i, row := range a {
		rows[i] = serializeRow(row)
	}
	return "[" + strings.Join(rows, ",") + "]"
}

func serializeRow(row []int) string {
	items := make([]string, len(row))
	for i, v := range row {
		items[i] = strconv.Itoa(v)
	}
	return "[" + strings.Join(items, ",") + "]"
}

type parser struct {
	src string
	pos int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) consume(b byte) bool {
	if p.peek() == b {
		p.pos++
		return true
	}
	return false
}

// parseArrayBody parses the comma-separated body between the array's
// outer brackets, which is either all rows or all items (never mixed).
func (p *parser) parseArrayBody() (Array, error) {
	p.skipSpace()
	if p.peek() == ']' {
		return Array{}, nil
	}
	if p.peek() == '[' {
		var rows Array
		for {
			p.skipSpace()
			if !p.consume('[') {
				return nil, ccerr.NewConfigError("jagged.parseArrayBody", "expected nested row at offset %d", p.pos)
			}
			row, err := p.parseItems()
			if err != nil {
				return nil, err
			}
			p.skipSpace()
			if !p.consume(']') {
				return nil, ccerr.NewConfigError("jagged.parseArrayBody", "expected ']' closing row at offset %d", p.pos)
			}
			rows = append(rows, row)
			p.skipSpace()
			if p.consume(',') {
				continue
			}
			break
		}
		return rows, nil
	}
	row, err := p.parseItems()
	if err != nil {
		return nil, err
	}
	return Array{row}, nil
}

func (p *parser) parseItems() ([]int, error) {
	var items []int
	for {
		p.skipSpace()
		lo, err := p.parseInt()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.consumeEllipsis() {
			p.skipSpace()
			hi, err := p.parseInt()
			if err != nil {
				return nil, err
			}
			step := 1
			if hi < lo {
				step = -1
			}
			for v := lo; ; v += step {
				items = append(items, v)
				if v == hi {
					break
				}
			}
		} else {
			items = append(items, lo)
		}
		p.skipSpace()
		if p.consume(',') {
			continue
		}
		break
	}
	return items, nil
}

func (p *parser) consumeEllipsis() bool {
	if strings.HasPrefix(p.src[p.pos:], "...") {
		p.pos += 3
		return true
	}
	return false
}

func (p *parser) parseInt() (int, error) {
	start := p.pos
	if p.peek() == '-' || p.peek() == '+' {
		p.pos++
	}
	digitsStart := p.pos
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	if p.pos == digitsStart {
		return 0, ccerr.NewConfigError("jagged.parseInt", "expected integer at offset %d", start)
	}
	v, err := strconv.Atoi(p.src[start:p.pos])
	if err != nil {
		return 0, ccerr.NewConfigError("jagged.parseInt", "invalid integer %q: %v", p.src[start:p.pos], err)
	}
	return v, nil
}

// String implements fmt.Stringer for debug logging.
func (a Array) String() string {
	return fmt.Sprintf("%v", [][]int(a))
}
