package domain

// Example is a worked input/output pair shown to the client at a node.
type Example struct {
	Input  string `json:"input" yaml:"user" mapstructure:"user"`
	Output string `json:"output" yaml:"agent" mapstructure:"agent"`
}

// Instruction is the per-node guidance payload.
// Every field defaults to empty; callers never need to check for nil.
type Instruction struct {
	Description  string    `json:"description,omitempty" yaml:"prompt,omitempty"`
	Capabilities []string  `json:"capabilities,omitempty" yaml:"tools,omitempty"`
	Examples     []Example `json:"examples,omitempty" yaml:"examples,omitempty"`
}

// IsEmpty reports whether the payload carries nothing beyond the node label.
func (i Instruction) IsEmpty() bool {
	return i.Description == "" && len(i.Capabilities) == 0 && len(i.Examples) == 0
}

// Clone returns a copy that shares no slices with i.
func (i Instruction) Clone() Instruction {
	out := Instruction{Description: i.Description}
	if len(i.Capabilities) > 0 {
		out.Capabilities = append([]string(nil), i.Capabilities...)
	}
	if len(i.Examples) > 0 {
		out.Examples = append([]Example(nil), i.Examples...)
	}
	return out
}
