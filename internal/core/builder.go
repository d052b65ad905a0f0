// File: internal/core/builder.go
package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Join is the boolean connective placed in front of a condition.
type Join string

const (
	And Join = "AND"
	Or  Join = "OR"
)

type fragmentKind int

const (
	predicate fragmentKind = iota
	joinMarker
	groupOpen
	groupClose
)

type fragment struct {
	kind fragmentKind
	text string
}

var operators = map[string]bool{
	"=":        true,
	"!=":       true,
	"<>":       true,
	">":        true,
	"<":        true,
	">=":       true,
	"<=":       true,
	"IN":       true,
	"NOT IN":   true,
	"BETWEEN":  true,
	"LIKE":     true,
	"NOT LIKE": true,
}

// Composer accumulates the clause fragments of one builder chain and renders
// the WHERE / GROUP BY / ORDER BY / LIMIT suffix of a statement.
type Composer struct {
	fields  string
	conds   []fragment
	depth   int
	groupBy []string
	orderBy []string
	limit   string
}

func NewComposer() *Composer {
	c := &Composer{}
	c.Reset()
	return c
}

// Reset clears fields, conditions, grouping, ordering and limit.
func (c *Composer) Reset() {
	c.fields = "*"
	c.conds = nil
	c.depth = 0
	c.groupBy = nil
	c.orderBy = nil
	c.limit = ""
}

// Clone returns a deep copy of c.
func (c *Composer) Clone() *Composer {
	return &Composer{
		fields:  c.fields,
		conds:   append([]fragment(nil), c.conds...),
		depth:   c.depth,
		groupBy: append([]string(nil), c.groupBy...),
		orderBy: append([]string(nil), c.orderBy...),
		limit:   c.limit,
	}
}

// SetFields sets the select list. No columns means "*".
func (c *Composer) SetFields(cols ...string) {
	if len(cols) == 0 {
		c.fields = "*"
		return
	}
	c.fields = strings.Join(cols, ", ")
}

func (c *Composer) Fields() string { return c.fields }

// HasLimit reports whether a limit fragment is set.
func (c *Composer) HasLimit() bool { return c.limit != "" }

// AddCondition appends `field operator value`, joined to the previous
// predicate with join. An Or join in first position (or first inside a group)
// is rendered as a plain condition.
func (c *Composer) AddCondition(field, operator string, value any, join Join) error {
	op := strings.ToUpper(strings.TrimSpace(operator))
	if !operators[op] {
		return fmt.Errorf("%w: unsupported operator %q", ErrInvalidArgument, operator)
	}

	var pred string
	switch op {
	case "IN", "NOT IN":
		vals, ok := sliceValues(value)
		if !ok {
			return fmt.Errorf("%w: %s requires a slice value", ErrInvalidArgument, op)
		}
		lits := make([]string, len(vals))
		for i, v := range vals {
			lits[i] = Literal(v)
		}
		pred = fmt.Sprintf("%s %s (%s)", field, op, strings.Join(lits, ", "))
	case "BETWEEN":
		vals, ok := sliceValues(value)
		if !ok || len(vals) != 2 {
			return fmt.Errorf("%w: BETWEEN requires a two element slice", ErrInvalidArgument)
		}
		pred = fmt.Sprintf("%s BETWEEN %s AND %s", field, Literal(vals[0]), Literal(vals[1]))
	default:
		if _, ok := sliceValues(value); ok {
			return fmt.Errorf("%w: %s does not accept a slice value", ErrInvalidArgument, op)
		}
		pred = fmt.Sprintf("%s %s %s", field, op, Literal(value))
	}

	if join == Or && c.joinable() {
		c.conds = append(c.conds, fragment{kind: joinMarker, text: string(Or)})
	}
	c.conds = append(c.conds, fragment{kind: predicate, text: pred})
	return nil
}

// joinable reports whether an explicit join marker may precede the next
// predicate.
func (c *Composer) joinable() bool {
	if len(c.conds) == 0 {
		return false
	}
	last := c.conds[len(c.conds)-1]
	return last.kind == predicate || last.kind == groupClose
}

// BeginGroup opens a parenthesised group, AND-joined to what precedes it.
func (c *Composer) BeginGroup() {
	if len(c.conds) > 0 {
		last := c.conds[len(c.conds)-1]
		if last.kind == predicate || last.kind == groupClose {
			c.conds = append(c.conds, fragment{kind: joinMarker, text: string(And)})
		}
	}
	c.conds = append(c.conds, fragment{kind: groupOpen, text: "("})
	c.depth++
}

// EndGroup closes the innermost open group.
func (c *Composer) EndGroup() error {
	if c.depth == 0 {
		return fmt.Errorf("%w: no open condition group", ErrInvalidArgument)
	}
	c.conds = append(c.conds, fragment{kind: groupClose, text: ")"})
	c.depth--
	return nil
}

// Enclose wraps every condition added so far in one group, so predicates
// appended afterwards bind to the whole expression.
func (c *Composer) Enclose() {
	if len(c.conds) == 0 {
		return
	}
	for ; c.depth > 0; c.depth-- {
		c.conds = append(c.conds, fragment{kind: groupClose, text: ")"})
	}
	conds := make([]fragment, 0, len(c.conds)+2)
	conds = append(conds, fragment{kind: groupOpen, text: "("})
	conds = append(conds, c.conds...)
	c.conds = append(conds, fragment{kind: groupClose, text: ")"})
}

func (c *Composer) GroupBy(cols ...string) {
	c.groupBy = append(c.groupBy, cols...)
}

// Grouping renders only the GROUP BY section, or "".
func (c *Composer) Grouping() string {
	if len(c.groupBy) == 0 {
		return ""
	}
	return "GROUP BY " + strings.Join(c.groupBy, ", ")
}

// OrderBy appends an ORDER BY fragment. An empty direction means ASC.
func (c *Composer) OrderBy(field, direction string) error {
	dir := strings.ToUpper(strings.TrimSpace(direction))
	if dir == "" {
		dir = "ASC"
	}
	if dir != "ASC" && dir != "DESC" {
		return fmt.Errorf("%w: invalid sort direction %q", ErrInvalidArgument, direction)
	}
	c.orderBy = append(c.orderBy, field+" "+dir)
	return nil
}

// Limit sets the LIMIT fragment, replacing any previous one.
func (c *Composer) Limit(count int, offset ...int) error {
	if count <= 0 {
		return fmt.Errorf("%w: limit count must be a positive integer", ErrInvalidArgument)
	}
	switch len(offset) {
	case 0:
		c.limit = "LIMIT " + strconv.Itoa(count)
	case 1:
		if offset[0] < 0 {
			return fmt.Errorf("%w: limit offset must be a non-negative integer", ErrInvalidArgument)
		}
		c.limit = fmt.Sprintf("LIMIT %d, %d", offset[0], count)
	default:
		return fmt.Errorf("%w: limit takes at most one offset", ErrInvalidArgument)
	}
	return nil
}

// Where renders only the WHERE section, or "" without conditions.
func (c *Composer) Where() string {
	conds := c.compact()
	if len(conds) == 0 {
		return ""
	}
	parts := make([]string, 0, len(conds))
	var prev fragmentKind = -1
	for _, f := range conds {
		if f.kind == predicate && (prev == predicate || prev == groupClose) {
			parts = append(parts, string(And))
		}
		parts = append(parts, f.text)
		prev = f.kind
	}
	return "WHERE " + strings.Join(parts, " ")
}

// compact closes groups left open and drops groups without predicates along
// with the join markers they leave dangling.
func (c *Composer) compact() []fragment {
	all := append([]fragment(nil), c.conds...)
	for i := 0; i < c.depth; i++ {
		all = append(all, fragment{kind: groupClose, text: ")"})
	}

	out := make([]fragment, 0, len(all))
	last := func() fragmentKind {
		if len(out) == 0 {
			return -1
		}
		return out[len(out)-1].kind
	}
	for _, f := range all {
		switch {
		case f.kind == groupClose && last() == groupOpen:
			out = out[:len(out)-1]
			if last() == joinMarker {
				out = out[:len(out)-1]
			}
		case f.kind == joinMarker && last() != predicate && last() != groupClose:
			// nothing left to join to
		default:
			out = append(out, f)
		}
	}
	return out
}

// Render assembles the WHERE / GROUP BY / ORDER BY / LIMIT suffix.
func (c *Composer) Render() string {
	var parts []string
	if where := c.Where(); where != "" {
		parts = append(parts, where)
	}
	if grouping := c.Grouping(); grouping != "" {
		parts = append(parts, grouping)
	}
	if len(c.orderBy) > 0 {
		parts = append(parts, "ORDER BY "+strings.Join(c.orderBy, ", "))
	}
	if c.limit != "" {
		parts = append(parts, c.limit)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
