package internal

// Expand turns the requested names into the ordered list of components to build.
//
// The registry is walked breadth first, starting from names in the given order,
// and the visitation order is reversed so that components discovered later (the
// deeper prerequisites) come first. Repeated components are then dropped, keeping
// the first occurrence. Repeats are detected by identity: two names aliasing one
// component collapse, two separately declared components never do.
//
// The result is dependency-first for chains but is not a topological sort for
// graphs where branches share prerequisites at different depths.
func Expand(reg *Registry, names []string) ([]*Component, error) {
	queue := append([]string(nil), names...)
	var visited []*Component
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		component, err := reg.Lookup(name)
		if err != nil {
			return nil, err
		}
		visited = append(visited, component)
		queue = append(queue, component.dependencies...)
	}

	seen := make(map[int]bool, len(visited))
	order := make([]*Component, 0, len(visited))
	for i := len(visited) - 1; i >= 0; i-- {
		component := visited[i]
		if seen[component.id] {
			continue
		}
		seen[component.id] = true
		order = append(order, component)
	}
	return order, nil
}
