/*
Package domain contains the core types shared by every sopnav component.

It defines the workflow vocabulary (nodes, edges, instructions), the per-conversation
session snapshot, the client-managed task list, and the typed errors and warnings
returned at the engine boundary. The package has no I/O and no third-party
dependencies, following Hexagonal Architecture principles.

# Key Entities

  - Node: a workflow step with a notation Shape and a traversal Kind (action, decision, terminal, annotation).
  - Edge: a directed relation with an optional condition label and a solid/dotted style.
  - Instruction: the closed guidance payload delivered when a node is visited.
  - Session: current node, path history, active workflow reference and tasks.
  - Task: a goal tied to the terminal node that marks it done.
*/
package domain
