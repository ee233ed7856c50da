package domain

import "time"

// WorkflowRef identifies the workflow a session navigates.
// Source keeps the document text so the graph can be rebuilt after a restart.
type WorkflowRef struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Digest  string `json:"digest"`
	Origin  string `json:"origin,omitempty"`
	Source  string `json:"source"`
}

// Session is the persisted snapshot of one conversation.
type Session struct {
	ID       string       `json:"id"`
	Workflow *WorkflowRef `json:"workflow,omitempty"`

	// Current is empty until the first successful move.
	Current string `json:"current,omitempty"`

	// Path holds every visited node in call order, repeats included.
	Path []string `json:"path"`

	Tasks []Task `json:"tasks"`

	UpdatedAt time.Time `json:"updated_at"`

	// Sealed carries the encrypted snapshot when the session was written
	// through an encrypting store; every other field is then blank.
	Sealed []byte `json:"sealed,omitempty"`
}

// NewSession creates an empty, unstarted session.
func NewSession(id string) *Session {
	return &Session{
		ID:    id,
		Path:  []string{},
		Tasks: []Task{},
	}
}

// Started reports whether a node has been visited.
func (s *Session) Started() bool {
	return s.Current != ""
}

// Loaded reports whether a workflow is attached.
func (s *Session) Loaded() bool {
	return s.Workflow != nil
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.Workflow != nil {
		w := *s.Workflow
		c.Workflow = &w
	}
	c.Path = append(make([]string, 0, len(s.Path)), s.Path...)
	c.Tasks = append(make([]Task, 0, len(s.Tasks)), s.Tasks...)
	if s.Sealed != nil {
		c.Sealed = append([]byte(nil), s.Sealed...)
	}
	return &c
}
