// Package registry is the source of truth for installed extensions.
//
// # Overview
//
// The registry holds one metadata record per registered extension:
// its manifest, current lifecycle state, install location, and last
// error. Manifests are validated at registration time and their
// required dependencies are folded into the dependency graph.
//
// # Key Features
//
// Registration: Validate and record manifests, overwriting on re-register
// Conflict Checking: Reject manifests that conflict with installed extensions
// State Tracking: INSTALLED, ENABLED, DISABLED, ERROR transitions written by the loader
// Graph Queries: Dependency lookups and deterministic topological orders
//
// # Usage Example
//
// Register and query:
//
//	reg := registry.NewRegistry(nil)
//	if err := reg.Register(m, "/opt/loom/extensions/flow-designer"); err != nil {
//		return err
//	}
//
//	meta, err := reg.Get("flow-designer")
//	fmt.Println(meta.State) // installed
//
// Topological order for a bulk operation:
//
//	order, err := reg.TopologicalOrder(reg.IDs())
//	var cycleErr *registry.CircularDependencyError
//	if errors.As(err, &cycleErr) {
//		fmt.Println(cycleErr.Path)
//	}
//
// # Related Packages
//
//   - pkg/manifest: Schema validation delegated at Register time
//   - pkg/dependencies: The underlying graph
//   - pkg/loader: Writes state transitions back into the registry
package registry
