package modulemanager

import (
	"fmt"
	"sort"

	"github.com/mantonx/seasontracker/internal/logger"
)

// DependencyProvider is an optional interface for modules that declare dependencies
type DependencyProvider interface {
	// Dependencies returns the list of module IDs this module depends on
	Dependencies() []string
}

// ModuleDependencyGraph represents the dependency relationships between modules
type ModuleDependencyGraph struct {
	nodes map[string]*DependencyNode
}

// DependencyNode represents a module in the dependency graph
type DependencyNode struct {
	ModuleID     string
	Module       Module
	Dependencies []string // Module IDs this module depends on
	Dependents   []string // Module IDs that depend on this module
	InitOrder    int      // Order in which to initialize (lower = earlier)
}

// BuildDependencyGraph creates a dependency graph from registered modules.
// A dependency on a module missing from modules is an error.
func BuildDependencyGraph(modules map[string]Module) (*ModuleDependencyGraph, error) {
	graph := &ModuleDependencyGraph{
		nodes: make(map[string]*DependencyNode),
	}

	for id, module := range modules {
		node := &DependencyNode{
			ModuleID:     id,
			Module:       module,
			Dependencies: []string{},
			Dependents:   []string{},
		}
		if depProvider, ok := module.(DependencyProvider); ok {
			node.Dependencies = append(node.Dependencies, depProvider.Dependencies()...)
			sort.Strings(node.Dependencies)
		}
		graph.nodes[id] = node
	}

	for _, id := range graph.sortedIDs() {
		node := graph.nodes[id]
		for _, depID := range node.Dependencies {
			depNode, exists := graph.nodes[depID]
			if !exists {
				return nil, fmt.Errorf("module %s depends on missing module %s", id, depID)
			}
			depNode.Dependents = append(depNode.Dependents, id)
		}
	}

	if err := graph.detectCycles(); err != nil {
		return nil, err
	}

	return graph, nil
}

func (g *ModuleDependencyGraph) sortedIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// detectCycles uses DFS to detect dependency cycles
func (g *ModuleDependencyGraph) detectCycles() error {
	visited := make(map[string]bool)
	inStack := make(map[string]bool)

	var dfs func(id string, path []string) error
	dfs = func(id string, path []string) error {
		visited[id] = true
		inStack[id] = true
		path = append(path, id)

		for _, depID := range g.nodes[id].Dependencies {
			if inStack[depID] {
				for i, p := range path {
					if p == depID {
						cycle := append(append([]string{}, path[i:]...), depID)
						return fmt.Errorf("circular dependency detected: %v", cycle)
					}
				}
			}
			if !visited[depID] {
				if err := dfs(depID, path); err != nil {
					return err
				}
			}
		}

		inStack[id] = false
		return nil
	}

	for _, id := range g.sortedIDs() {
		if !visited[id] {
			if err := dfs(id, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// GetInitializationOrder returns modules with every dependency before its
// dependents. Ties are broken by module ID so the order is stable.
func (g *ModuleDependencyGraph) GetInitializationOrder() []Module {
	order := make([]Module, 0, len(g.nodes))
	visited := make(map[string]bool)

	var visit func(string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true

		node := g.nodes[id]
		for _, depID := range node.Dependencies {
			visit(depID)
		}

		order = append(order, node.Module)
		node.InitOrder = len(order)
	}

	for _, id := range g.sortedIDs() {
		visit(id)
	}
	return order
}

// LogDependencyInfo logs each module's dependencies at debug level
func (g *ModuleDependencyGraph) LogDependencyInfo() {
	for _, id := range g.sortedIDs() {
		node := g.nodes[id]
		logger.Debug("module dependencies",
			"module", id,
			"dependencies", node.Dependencies,
			"dependents", node.Dependents,
			"init_order", node.InitOrder,
		)
	}
}
