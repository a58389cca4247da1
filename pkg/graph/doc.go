/*
Package graph defines the immutable node/edge model the executor walks.

A Definition is produced once by a Builder and validated eagerly: every edge
target must be declared, every conditional edge must map each outcome its
router can produce, and the terminal marker End must be reachable from the
entry node. A Definition has no mutators, so it can be shared freely between
goroutines.

	b := graph.New()
	b.AddNode("greet", greet)
	b.AddNode("check", check, graph.InterruptBefore())
	b.SetEntry("greet")
	b.AddEdge("greet", "check")
	b.AddConditionalEdge("check", router, graph.Routes(map[Outcome]string{...}))
	def, err := b.Build()
*/
package graph
