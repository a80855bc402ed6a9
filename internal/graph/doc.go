// Package graph normalizes a deserialized module tree, and its trace when
// one was recorded, into a graph of operator nodes.
//
// Build runs in three steps:
//   - Registration: a breadth-first walk assigns parents and identifiers to
//     submodules and indexes tensor fields by their trace identifiers
//   - Folding: a traced operator whose tensor inputs consume every parameter
//     of exactly one module absorbs those parameters as initializers, and the
//     module is hidden
//   - Module nodes: a depth-first walk turns every remaining module holding
//     parameters into a "Module" node named by its qualified path
//
// The num_batches_tracked field never counts as a parameter.
//
// Example usage:
//
//	g, err := graph.Build(c, metadata.Default(), graph.Options{TraceAttributes: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, node := range g.Nodes {
//	    fmt.Printf("%s %s (%s)\n", node.Operator, node.Name, node.Category())
//	}
package graph
