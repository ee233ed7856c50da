/*
Package dsl provides a Go DSL for programmatically constructing workflow graphs.

It is the code-first counterpart of the flowchart notation: the same node shapes,
labeled branches and escalation edges, expressed with a fluent builder. It is
useful for generated workflows, unit tests and IDE-checked definitions.

Example usage:

	b := dsl.New().Name("returns").Reentry("ROUTE")

	b.Add("START").Terminal("Start").Go("ROUTE")
	b.Add("ROUTE").Decision("What does the user want?").
		Branch("return", "LOOKUP").
		Branch("other", "END")
	b.Add("LOOKUP").Action("Find the order").
		Describe("Ask for the order id and look it up.").
		Capabilities("get_order_details").
		Go("END")
	b.Add("END").Terminal("Done")

	g, err := b.Build()
*/
package dsl
