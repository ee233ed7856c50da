package notation

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/aretw0/sopnav/pkg/domain"
)

// Flowchart is the parsed topology of a flowchart block, in source order.
// Node kinds are the shape defaults; entry adjustment happens in the graph.
type Flowchart struct {
	Direction string
	Nodes     []domain.Node
	Edges     []domain.Edge
}

var directions = map[string]bool{"TD": true, "TB": true, "BT": true, "LR": true, "RL": true}

// Statements that only affect styling or grouping.
var ignoredKeywords = map[string]bool{
	"classDef":  true,
	"class":     true,
	"style":     true,
	"linkStyle": true,
	"click":     true,
	"subgraph":  true,
	"direction": true,
}

type mention struct {
	id   string
	line int
	col  int
}

type parser struct {
	offset int

	direction string
	header    bool

	order    []string
	nodes    map[string]*domain.Node
	declared map[string]int
	mentions []mention
	edges    []domain.Edge
}

// ParseFlowchart parses flowchart source text.
func ParseFlowchart(src string) (*Flowchart, error) {
	return parseFlowchart(src, 0)
}

// parseFlowchart parses src whose first line is line offset+1 of the enclosing document.
func parseFlowchart(src string, offset int) (*Flowchart, error) {
	p := &parser{
		offset:   offset,
		nodes:    make(map[string]*domain.Node),
		declared: make(map[string]int),
	}

	sc := bufio.NewScanner(strings.NewReader(src))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := offset
	for sc.Scan() {
		line++
		if err := p.line(line, sc.Text()); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &domain.ParseError{Line: line + 1, Msg: fmt.Sprintf("read flowchart: %v", err)}
	}

	for _, m := range p.mentions {
		if _, ok := p.declared[m.id]; !ok {
			return nil, &domain.ParseError{Line: m.line, Column: m.col, Msg: fmt.Sprintf("undeclared node %q: give it a shape such as %s[...]", m.id, m.id)}
		}
	}
	if len(p.order) == 0 {
		return nil, &domain.ParseError{Line: offset + 1, Msg: "flowchart declares no nodes"}
	}

	fc := &Flowchart{
		Direction: p.direction,
		Nodes:     make([]domain.Node, 0, len(p.order)),
		Edges:     p.edges,
	}
	if fc.Direction == "" {
		fc.Direction = "TD"
	}
	for _, id := range p.order {
		fc.Nodes = append(fc.Nodes, *p.nodes[id])
	}
	return fc, nil
}

func (p *parser) line(n int, text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || strings.HasPrefix(trimmed, "%%") {
		return nil
	}

	c := newCursor(n, text)
	c.skipSpace()

	word := firstWord(trimmed)
	switch {
	case word == "flowchart" || word == "graph":
		if p.header || len(p.order) > 0 {
			return c.errorf(c.col(), "unexpected %q header", word)
		}
		p.header = true
		dir := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(trimmed[len(word):]), ";"))
		if dir == "" {
			return nil
		}
		if !directions[dir] {
			return c.errorf(c.col()+len(word)+1, "unknown direction %q", dir)
		}
		p.direction = dir
		return nil
	case trimmed == "end" || ignoredKeywords[word] && len(trimmed) > len(word) && isBlank(trimmed[len(word)]):
		return nil
	}

	for {
		if err := p.statement(c); err != nil {
			return err
		}
		c.skipSpace()
		if c.eof() {
			return nil
		}
		if c.peek() != ';' {
			return c.errorf(c.col(), "unexpected %q", string(c.peek()))
		}
		c.pos++
		c.skipSpace()
		if c.eof() {
			return nil
		}
	}
}

// statement parses `node (arrow node)*`.
func (p *parser) statement(c *cursor) error {
	from, err := p.node(c)
	if err != nil {
		return err
	}
	for {
		c.skipSpace()
		if c.eof() || c.peek() == ';' {
			return nil
		}
		edge, err := p.arrow(c)
		if err != nil {
			return err
		}
		c.skipSpace()
		to, err := p.node(c)
		if err != nil {
			return err
		}
		edge.From = from
		edge.To = to
		edge.Line = c.line
		p.edges = append(p.edges, edge)
		from = to
	}
}

// node parses an identifier with an optional shape and class suffix.
// A reference without a shape must be declared elsewhere in the source.
func (p *parser) node(c *cursor) (string, error) {
	col := c.col()
	id := c.ident()
	if id == "" {
		if c.eof() {
			return "", c.errorf(col, "expected node id")
		}
		return "", c.errorf(col, "expected node id, found %q", string(c.peek()))
	}

	shape, label, ok, err := p.shape(c)
	if err != nil {
		return "", err
	}
	if c.hasPrefix(":::") {
		c.pos += 3
		c.ident()
	}

	p.touch(id, c.line)
	if !ok {
		p.mentions = append(p.mentions, mention{id: id, line: c.line, col: col})
		return id, nil
	}
	if err := p.declare(id, shape, label, c.line, col); err != nil {
		return "", err
	}
	return id, nil
}

func (p *parser) shape(c *cursor) (domain.Shape, string, bool, error) {
	var (
		shape domain.Shape
		label string
		err   error
	)
	switch {
	case c.hasPrefix("(["):
		shape = domain.ShapeStadium
		label, err = c.enclosed("([", "])")
	case c.hasPrefix("[/"):
		shape = domain.ShapeParallelogram
		label, err = c.enclosed("[/", "/]")
	case c.hasPrefix("["):
		shape = domain.ShapeRectangle
		label, err = c.enclosed("[", "]")
	case c.hasPrefix("{"):
		shape = domain.ShapeRhombus
		label, err = c.enclosed("{", "}")
	case c.hasPrefix("(") || c.hasPrefix(">"):
		return "", "", false, c.errorf(c.col(), "unsupported node shape: use ([text]), [text], {text} or [/text/]")
	default:
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, err
	}
	return shape, label, true, nil
}

// touch records first appearance order.
func (p *parser) touch(id string, line int) {
	if _, ok := p.nodes[id]; ok {
		return
	}
	p.nodes[id] = &domain.Node{ID: id, Line: line}
	p.order = append(p.order, id)
}

func (p *parser) declare(id string, shape domain.Shape, label string, line, col int) error {
	n := p.nodes[id]
	if first, ok := p.declared[id]; ok {
		if n.Shape != shape || n.Label != label {
			return &domain.ParseError{Line: line, Column: col, Msg: fmt.Sprintf("node %q redeclared with a different shape or label (first declared on line %d)", id, first)}
		}
		return nil
	}
	p.declared[id] = line
	n.Shape = shape
	n.Kind = domain.KindOf(shape)
	n.Label = label
	n.Line = line
	return nil
}

// arrow parses one of `-->`, `-.->`, `-- text -->`, `-. text .->`
// followed by an optional `|label|`.
func (p *parser) arrow(c *cursor) (domain.Edge, error) {
	col := c.col()
	var e domain.Edge

	switch {
	case c.hasPrefix("-."):
		e.Style = domain.EdgeDotted
		c.pos++
		dots := 0
		for c.peek() == '.' {
			c.pos++
			dots++
		}
		switch {
		case c.hasPrefix("->"):
			c.pos += 2
		case dots == 1 && isBlank(byte(c.peek())):
			end := c.indexFrom(".->")
			if end < 0 {
				return e, c.errorf(col, "unterminated dotted link: missing \".->\"")
			}
			e.Label = unescape(strings.TrimSpace(string(c.src[c.pos:end])))
			c.pos = end + 3
			return e, nil
		default:
			return e, c.errorf(col, "malformed dotted arrow")
		}
	case c.hasPrefix("--"):
		e.Style = domain.EdgeSolid
		c.pos += 2
		dashes := 2
		for c.peek() == '-' {
			c.pos++
			dashes++
		}
		switch {
		case c.peek() == '>':
			c.pos++
		case dashes == 2 && isBlank(byte(c.peek())):
			end := c.indexFrom("-->")
			if end < 0 {
				return e, c.errorf(col, "unterminated link text: missing \"-->\"")
			}
			e.Label = unescape(strings.TrimSpace(string(c.src[c.pos:end])))
			c.pos = end + 3
			return e, nil
		default:
			return e, c.errorf(col, "undirected links are not supported; use -->")
		}
	case c.hasPrefix("=="):
		return e, c.errorf(col, "thick links are not supported; use -->")
	default:
		if c.eof() {
			return e, c.errorf(col, "expected arrow")
		}
		return e, c.errorf(col, "expected arrow, found %q", string(c.peek()))
	}

	c.skipSpace()
	if c.peek() == '|' {
		label, err := c.enclosed("|", "|")
		if err != nil {
			return e, err
		}
		e.Label = label
	}
	return e, nil
}

func firstWord(s string) string {
	for i, r := range s {
		if !isIDRune(r) {
			return s[:i]
		}
	}
	return s
}

func isBlank(b byte) bool {
	return b == ' ' || b == '\t'
}
