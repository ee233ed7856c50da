package notation

import (
	"fmt"
	"strings"

	"github.com/aretw0/sopnav/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

const (
	flowchartHeading = "## SOP Flowchart"
	promptsHeading   = "## Node Prompts"
)

// Model is the optional client model hint carried by the header.
// The engine only echoes it.
type Model struct {
	Provider    string  `yaml:"provider" json:"provider,omitempty"`
	Name        string  `yaml:"name" json:"name,omitempty"`
	Temperature float64 `yaml:"temperature" json:"temperature,omitempty"`
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens,omitempty"`
}

// Server names an external capability server the client may connect to.
type Server struct {
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

// Header is the structured front matter of a workflow document.
type Header struct {
	Agent        string   `yaml:"agent" json:"agent"`
	Version      string   `yaml:"version" json:"version"`
	Description  string   `yaml:"description" json:"description,omitempty"`
	EntryNode    string   `yaml:"entry_node" json:"entry_node,omitempty"`
	ReentryNode  string   `yaml:"reentry_node" json:"reentry_node,omitempty"`
	Capabilities []string `yaml:"capabilities" json:"capabilities,omitempty"`
	Tools        []string `yaml:"tools" json:"tools,omitempty"`
	Model        *Model   `yaml:"model" json:"model,omitempty"`
	MCPServers   []Server `yaml:"mcp_servers" json:"mcp_servers,omitempty"`
}

// AllCapabilities merges capabilities and tools, first occurrence wins.
func (h Header) AllCapabilities() []string {
	return dedupe(append(append([]string(nil), h.Capabilities...), h.Tools...))
}

// Document is a parsed single-file workflow: header, free preamble,
// flowchart and per-node instructions.
type Document struct {
	Header    Header
	HasHeader bool

	// Preamble is the markdown between the header and the flowchart section.
	Preamble string
	// Sections lists the level-2 headings of the preamble plus the flowchart section.
	Sections []string

	Flowchart       *Flowchart
	FlowchartSource string

	// Instructions are keyed by node id; InstructionOrder keeps source order.
	Instructions     map[string]domain.Instruction
	InstructionOrder []string
	instructionLines map[string]int

	Raw string
}

// SystemPrompt returns the preamble followed by the flowchart section.
func (d *Document) SystemPrompt(flowchart string) string {
	var b strings.Builder
	if d.Preamble != "" {
		b.WriteString(d.Preamble)
		b.WriteString("\n\n")
	}
	b.WriteString(flowchartHeading)
	b.WriteString("\n\n```mermaid\n")
	b.WriteString(strings.TrimRight(flowchart, "\n"))
	b.WriteString("\n```")
	return b.String()
}

// ParseDocument parses a workflow document. A text without front matter
// and without a fenced flowchart block is parsed as bare flowchart source.
func ParseDocument(text string) (*Document, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	doc := &Document{
		Raw:              text,
		Instructions:     make(map[string]domain.Instruction),
		instructionLines: make(map[string]int),
	}

	body, err := doc.parseHeader(lines)
	if err != nil {
		return nil, err
	}

	heading := findHeading(lines, body, len(lines), flowchartHeading)
	fenceFrom := body
	if heading >= 0 {
		fenceFrom = heading + 1
	}
	open, close, err := findFence(lines, fenceFrom, "mermaid")
	if err != nil {
		return nil, err
	}

	if open < 0 {
		if doc.HasHeader || heading >= 0 {
			return nil, &domain.ParseError{Line: fenceFrom + 1, Msg: "no ```mermaid flowchart block found"}
		}
		fc, err := parseFlowchart(text, 0)
		if err != nil {
			return nil, err
		}
		doc.Flowchart = fc
		doc.FlowchartSource = strings.TrimSpace(text)
		return doc, nil
	}

	preambleEnd := open
	if heading >= 0 {
		preambleEnd = heading
	}
	doc.Preamble = strings.TrimSpace(strings.Join(lines[body:preambleEnd], "\n"))
	doc.Sections = sectionsOf(lines[body:preambleEnd])
	if heading >= 0 {
		doc.Sections = append(doc.Sections, strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[heading]), "##")))
	}

	src := strings.Join(lines[open+1:close], "\n")
	fc, err := parseFlowchart(src, open+1)
	if err != nil {
		return nil, err
	}
	doc.Flowchart = fc
	doc.FlowchartSource = strings.TrimSpace(src)

	prompts := findHeading(lines, close+1, len(lines), promptsHeading)
	if prompts >= 0 {
		end := nextHeading(lines, prompts+1, "## ")
		if err := doc.parsePrompts(lines, prompts+1, end); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// parseHeader decodes the front matter and returns the index of the first body line.
func (d *Document) parseHeader(lines []string) (int, error) {
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	if start == len(lines) || strings.TrimSpace(lines[start]) != "---" {
		return 0, nil
	}
	end := -1
	for i := start + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end < 0 {
		return 0, &domain.ParseError{Line: start + 1, Msg: "unterminated front matter: missing closing ---"}
	}

	var h Header
	if err := yaml.Unmarshal([]byte(strings.Join(lines[start+1:end], "\n")), &h); err != nil {
		return 0, &domain.ParseError{Line: start + 1, Msg: fmt.Sprintf("invalid header: %v", err)}
	}
	d.Header = h
	d.HasHeader = true
	return end + 1, nil
}

// parsePrompts reads the node prompts section in lines[from:to]. It accepts a
// fenced yaml block, a bare yaml mapping, or one `### ID` subsection per node.
func (d *Document) parsePrompts(lines []string, from, to int) error {
	section := lines[from:to]

	open, close, err := findFence(section, 0, "yaml", "yml")
	if err != nil {
		return err
	}
	if open >= 0 {
		return d.decodePromptMap(strings.Join(section[open+1:close], "\n"), from+open+1)
	}

	if nextHeading(section, 0, "### ") < len(section) {
		return d.parseSubsections(section, from)
	}

	text := strings.Join(section, "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return d.decodePromptMap(text, from)
}

// decodePromptMap decodes `node_prompts: {ID: entry}` or a bare `{ID: entry}` mapping.
// offset is the 0-based document line of the first yaml line.
func (d *Document) decodePromptMap(text string, offset int) error {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(text), &root); err != nil {
		return &domain.ParseError{Line: offset + 1, Msg: fmt.Sprintf("invalid node prompts: %v", err)}
	}
	if len(root.Content) == 0 {
		return nil
	}
	m := root.Content[0]
	if m.Kind != yaml.MappingNode {
		return &domain.ParseError{Line: offset + m.Line, Column: m.Column, Msg: "node prompts must be a mapping of node id to prompt"}
	}
	if len(m.Content) == 2 && m.Content[0].Value == "node_prompts" {
		m = m.Content[1]
		if m.Kind != yaml.MappingNode {
			return &domain.ParseError{Line: offset + m.Line, Column: m.Column, Msg: "node_prompts must be a mapping"}
		}
	}

	for i := 0; i+1 < len(m.Content); i += 2 {
		key, val := m.Content[i], m.Content[i+1]
		line := offset + key.Line
		var raw any
		if err := val.Decode(&raw); err != nil {
			return &domain.ParseError{Line: line, Column: key.Column, Msg: fmt.Sprintf("invalid prompt for %q: %v", key.Value, err)}
		}
		ins, err := decodeInstruction(raw)
		if err != nil {
			return &domain.ParseError{Line: line, Column: key.Column, Msg: fmt.Sprintf("invalid prompt for %q: %v", key.Value, err)}
		}
		if err := d.addInstruction(key.Value, ins, line); err != nil {
			return err
		}
	}
	return nil
}

// parseSubsections reads `### ID` blocks. Each body is either a yaml mapping
// with known prompt keys or plain prompt text.
func (d *Document) parseSubsections(section []string, from int) error {
	i := nextHeading(section, 0, "### ")
	for i < len(section) {
		id := strings.Trim(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(section[i]), "###")), "`")
		end := nextHeading(section, i+1, "### ")
		line := from + i + 1
		if id == "" {
			return &domain.ParseError{Line: line, Msg: "node prompt heading without a node id"}
		}

		body := strings.TrimSpace(strings.Join(section[i+1:end], "\n"))
		if open, close, err := findFence(section[i+1:end], 0, "yaml", "yml"); err == nil && open >= 0 {
			body = strings.Join(section[i+1+open+1:i+1+close], "\n")
		}

		ins, err := subsectionInstruction(body)
		if err != nil {
			return &domain.ParseError{Line: line, Msg: fmt.Sprintf("invalid prompt for %q: %v", id, err)}
		}
		if err := d.addInstruction(id, ins, line); err != nil {
			return err
		}
		i = end
	}
	return nil
}

func (d *Document) addInstruction(id string, ins domain.Instruction, line int) error {
	if first, dup := d.instructionLines[id]; dup {
		return &domain.ParseError{Line: line, Msg: fmt.Sprintf("prompt for node %q given twice (first on line %d)", id, first)}
	}
	d.instructionLines[id] = line
	d.Instructions[id] = ins
	d.InstructionOrder = append(d.InstructionOrder, id)
	return nil
}

type promptEntry struct {
	Prompt       string           `mapstructure:"prompt"`
	Description  string           `mapstructure:"description"`
	Tools        []string         `mapstructure:"tools"`
	Capabilities []string         `mapstructure:"capabilities"`
	Examples     []domain.Example `mapstructure:"examples"`
}

var promptKeys = map[string]bool{"prompt": true, "description": true, "tools": true, "capabilities": true, "examples": true}

func decodeInstruction(raw any) (domain.Instruction, error) {
	switch v := raw.(type) {
	case nil:
		return domain.Instruction{}, nil
	case string:
		return domain.Instruction{Description: strings.TrimSpace(v)}, nil
	case map[string]any:
		var e promptEntry
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &e,
		})
		if err != nil {
			return domain.Instruction{}, err
		}
		if err := dec.Decode(v); err != nil {
			return domain.Instruction{}, err
		}
		desc := e.Prompt
		if desc == "" {
			desc = e.Description
		}
		return domain.Instruction{
			Description:  strings.TrimSpace(desc),
			Capabilities: dedupe(append(e.Tools, e.Capabilities...)),
			Examples:     e.Examples,
		}, nil
	default:
		return domain.Instruction{}, fmt.Errorf("expected text or mapping, got %T", raw)
	}
}

func subsectionInstruction(body string) (domain.Instruction, error) {
	if body == "" {
		return domain.Instruction{}, nil
	}
	var raw map[string]any
	if err := yaml.Unmarshal([]byte(body), &raw); err == nil && len(raw) > 0 {
		known := true
		for k := range raw {
			if !promptKeys[k] {
				known = false
				break
			}
		}
		if known {
			return decodeInstruction(raw)
		}
	}
	return domain.Instruction{Description: body}, nil
}

// findHeading returns the index of the first line in [from, to) equal to
// heading outside fenced blocks, or -1.
func findHeading(lines []string, from, to int, heading string) int {
	fenced := false
	for i := from; i < to; i++ {
		t := strings.TrimSpace(lines[i])
		if strings.HasPrefix(t, "```") {
			fenced = !fenced
			continue
		}
		if !fenced && strings.EqualFold(t, heading) {
			return i
		}
	}
	return -1
}

// nextHeading returns the index of the next line starting with prefix outside
// fenced blocks, or len(lines).
func nextHeading(lines []string, from int, prefix string) int {
	fenced := false
	for i := from; i < len(lines); i++ {
		t := strings.TrimSpace(lines[i])
		if strings.HasPrefix(t, "```") {
			fenced = !fenced
			continue
		}
		if !fenced && strings.HasPrefix(t, prefix) {
			return i
		}
	}
	return len(lines)
}

// findFence locates the first fenced block tagged with one of langs at or
// after from. It returns the opening and closing line indexes, or -1, -1.
func findFence(lines []string, from int, langs ...string) (int, int, error) {
	for i := from; i < len(lines); i++ {
		t := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(t, "```") {
			continue
		}
		tag := strings.TrimSpace(strings.TrimPrefix(t, "```"))
		match := false
		for _, l := range langs {
			if strings.EqualFold(tag, l) {
				match = true
			}
		}
		if !match {
			continue
		}
		for j := i + 1; j < len(lines); j++ {
			if strings.HasPrefix(strings.TrimSpace(lines[j]), "```") {
				return i, j, nil
			}
		}
		return -1, -1, &domain.ParseError{Line: i + 1, Msg: fmt.Sprintf("unterminated ```%s block", tag)}
	}
	return -1, -1, nil
}

func sectionsOf(lines []string) []string {
	res := []string{}
	fenced := false
	for _, l := range lines {
		t := strings.TrimSpace(l)
		if strings.HasPrefix(t, "```") {
			fenced = !fenced
			continue
		}
		if !fenced && strings.HasPrefix(t, "## ") {
			res = append(res, strings.TrimSpace(t[3:]))
		}
	}
	return res
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
