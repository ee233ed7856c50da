/*
Package sopnav navigates conversational agents through standard operating
procedures written as flowcharts.

A workflow is a single markdown document: an optional YAML header, free
prose, a mermaid flowchart under "## SOP Flowchart" and optional per-node
instructions under "## Node Prompts". The engine compiles it into an
immutable graph and then acts as a referee: the agent announces every move,
the engine checks it against the graph, records it in the session path and
answers with the instructions for the node reached.

# Operations

  - Load installs a workflow in a session and returns its summary, the
    flowchart (or its skeleton) and a system prompt.
  - Goto validates a move and delivers the node's instructions, outgoing
    edges and, when a task's completion node is reached, a reminder.
  - SetTasks replaces the client's task list.

# Usage

	eng, err := sopnav.New(
		sopnav.WithResolver(file.NewSource("./agents")),
		sopnav.WithStore(redis.NewFromClient(client)),
	)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if _, err := eng.Load(ctx, "conv-1", sopnav.LoadRequest{Ref: "retail"}); err != nil {
		log.Fatal(err)
	}

	res, err := eng.Goto(ctx, "conv-1", "START")
	if err != nil {
		// res.LegalNext tells the caller where it may go instead.
		log.Printf("rejected: %v (try %v)", err, res.LegalNext)
	}

Sessions are serialized per conversation; concurrent calls for the same
session never lose updates. Graphs are cached by content digest and shared
between sessions.
*/
package sopnav
