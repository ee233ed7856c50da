package loam

// AgentMetadata is the front matter of an agent document as decoded by Loam.
// The mapstructure tags match the header keys of the workflow notation.
type AgentMetadata struct {
	Agent        string         `json:"agent" mapstructure:"agent"`
	Version      string         `json:"version" mapstructure:"version"`
	Description  string         `json:"description" mapstructure:"description"`
	EntryNode    string         `json:"entry_node" mapstructure:"entry_node"`
	ReentryNode  string         `json:"reentry_node" mapstructure:"reentry_node"`
	Capabilities []string       `json:"capabilities" mapstructure:"capabilities"`
	Tools        []string       `json:"tools" mapstructure:"tools"`
	Model        map[string]any `json:"model" mapstructure:"model"`
	MCPServers   []any          `json:"mcp_servers" mapstructure:"mcp_servers"`
}
