package crew

import "sort"

// Order returns every node key in a topological order (Kahn's algorithm). Ties
// are broken by node declaration order, level by level, so the order equals the
// concatenation of Levels. The graph is validated first.
func Order(graph *Graph) ([]string, error) {
	levels, err := Levels(graph)
	if err != nil {
		return nil, err
	}
	order := make([]string, 0, len(graph.Nodes))
	for _, level := range levels {
		order = append(order, level...)
	}
	return order, nil
}

// Levels groups node keys by topological depth: level 0 holds the roots, and
// every edge goes from a lower level to a higher one. Within a level keys keep
// declaration order. A self-loop is a cycle.
func Levels(graph *Graph) ([][]string, error) {
	if err := graph.Validate(); err != nil {
		return nil, err
	}

	position := make(map[string]int, len(graph.Nodes))
	inDegree := make(map[string]int, len(graph.Nodes))
	adjacency := make(map[string][]string, len(graph.Nodes))
	for index, node := range graph.Nodes {
		position[node.Key] = index
		inDegree[node.Key] = 0
	}
	for _, edge := range graph.Links {
		adjacency[edge.From] = append(adjacency[edge.From], edge.To)
		inDegree[edge.To]++
	}

	byPosition := func(keys []string) {
		sort.Slice(keys, func(a, b int) bool { return position[keys[a]] < position[keys[b]] })
	}

	current := make([]string, 0)
	for _, node := range graph.Nodes {
		if inDegree[node.Key] == 0 {
			current = append(current, node.Key)
		}
	}

	levels := make([][]string, 0)
	processed := 0
	for len(current) > 0 {
		levels = append(levels, current)
		processed += len(current)

		next := make([]string, 0)
		for _, key := range current {
			for _, neighbor := range adjacency[key] {
				inDegree[neighbor]--
				if inDegree[neighbor] == 0 {
					next = append(next, neighbor)
				}
			}
		}
		byPosition(next)
		current = next
	}

	if processed != len(graph.Nodes) {
		remaining := make([]string, 0, len(graph.Nodes)-processed)
		for _, node := range graph.Nodes {
			if inDegree[node.Key] > 0 {
				remaining = append(remaining, node.Key)
			}
		}
		return nil, &CycleError{Nodes: remaining}
	}
	return levels, nil
}

// Roots returns the keys of nodes no edge points to, in declaration order.
// Edges whose target does not exist are ignored.
func Roots(graph *Graph) []string {
	targets := make(map[string]struct{}, len(graph.Links))
	for _, edge := range graph.Links {
		targets[edge.To] = struct{}{}
	}
	roots := make([]string, 0)
	for _, node := range graph.Nodes {
		if _, ok := targets[node.Key]; !ok {
			roots = append(roots, node.Key)
		}
	}
	return roots
}
