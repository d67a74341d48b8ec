// Package dependencies provides the extension dependency graph.
//
// # Overview
//
// This package maintains the directed graph of non-optional dependency
// edges among registered extensions, detects circular dependencies,
// and produces deterministic topological orders for bulk lifecycle
// operations.
//
// # Key Features
//
// Graph Maintenance: Add and remove extensions with their dependency edges
// Circular Detection: DFS with a visiting set, reporting the offending cycle path
// Topological Sort: Dependencies before dependents, ties broken by input order
// Dependent Queries: Direct and transitive reverse lookups
//
// # Usage Example
//
// Build and query a graph:
//
//	graph := dependencies.NewGraph()
//	graph.AddNode("ext-1", []string{"dep-1"})
//	graph.AddNode("dep-1", nil)
//
//	order, err := graph.TopologicalSort([]string{"ext-1", "dep-1"})
//	// order == ["dep-1", "ext-1"]
//
// Detect cycles before a bulk operation:
//
//	if path, ok := graph.DetectCycle(ids); ok {
//		fmt.Println(strings.Join(path, " -> "))
//	}
//
// # Related Packages
//
//   - pkg/registry: Folds manifests into the graph at registration time
//   - pkg/loader: Uses topological orders for LoadAll/ActivateAll
package dependencies
