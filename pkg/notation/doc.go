// Package notation parses workflow documents into graphs and renders graphs
// back into flowchart notation.
//
// A document is markdown with YAML front matter, a "## SOP Flowchart" section
// holding a fenced mermaid flowchart, and an optional "## Node Prompts"
// section with per-node instructions. Bare flowchart source is accepted too.
package notation
