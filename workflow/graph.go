package workflow

import (
	"gestion-proyectos/backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DependencyGraph indexes a set of tasks as an arena of nodes with adjacency
// by index. An edge u -> v means task u depends on task v.
//
// It is built per request from freshly loaded tasks and is not safe for
// concurrent mutation.
type DependencyGraph struct {
	ids      []primitive.ObjectID
	titles   []string
	index    map[primitive.ObjectID]int
	outgoing [][]int
}

// NewDependencyGraph indexes tasks and their stored dependency edges.
// References to tasks outside the set are ignored.
func NewDependencyGraph(tasks []models.Task) *DependencyGraph {
	g := &DependencyGraph{
		ids:      make([]primitive.ObjectID, 0, len(tasks)),
		titles:   make([]string, 0, len(tasks)),
		index:    make(map[primitive.ObjectID]int, len(tasks)),
		outgoing: make([][]int, 0, len(tasks)),
	}
	for _, t := range tasks {
		g.addNode(t.ID, t.Title)
	}
	for _, t := range tasks {
		from := g.index[t.ID]
		for _, dep := range t.Dependencies {
			to, ok := g.index[dep]
			if !ok || to == from || g.hasEdge(from, to) {
				continue
			}
			g.outgoing[from] = append(g.outgoing[from], to)
		}
	}
	return g
}

func (g *DependencyGraph) addNode(id primitive.ObjectID, title string) int {
	if i, ok := g.index[id]; ok {
		return i
	}
	i := len(g.ids)
	g.ids = append(g.ids, id)
	g.titles = append(g.titles, title)
	g.index[id] = i
	g.outgoing = append(g.outgoing, nil)
	return i
}

// AddTask registers a task that is not yet stored, such as one being created.
func (g *DependencyGraph) AddTask(id primitive.ObjectID, title string) {
	g.addNode(id, title)
}

func (g *DependencyGraph) Has(id primitive.ObjectID) bool {
	_, ok := g.index[id]
	return ok
}

func (g *DependencyGraph) hasEdge(from, to int) bool {
	for _, v := range g.outgoing[from] {
		if v == to {
			return true
		}
	}
	return false
}

// AddEdge records that task depends on dependency. It fails without changing
// the graph when either task is unknown, the edge is a self loop or a
// duplicate, or the edge would close a cycle.
func (g *DependencyGraph) AddEdge(task, dependency primitive.ObjectID) error {
	from, ok := g.index[task]
	if !ok {
		return graphErrorf(ErrUnknownTask, "%s", task.Hex())
	}
	to, ok := g.index[dependency]
	if !ok {
		return graphErrorf(ErrUnknownTask, "%s", dependency.Hex())
	}
	if from == to {
		return graphErrorf(ErrSelfDependency, "%q", g.titles[from])
	}
	if g.hasEdge(from, to) {
		return graphErrorf(ErrDuplicateDependency, "%q -> %q", g.titles[from], g.titles[to])
	}
	if path := g.pathBetween(to, from); path != nil {
		names := make([]string, 0, len(path)+1)
		names = append(names, g.titles[from])
		for _, i := range path {
			names = append(names, g.titles[i])
		}
		return cycleError(names)
	}
	g.outgoing[from] = append(g.outgoing[from], to)
	return nil
}

// RemoveEdge deletes task -> dependency. It reports whether the edge existed.
func (g *DependencyGraph) RemoveEdge(task, dependency primitive.ObjectID) bool {
	from, ok := g.index[task]
	if !ok {
		return false
	}
	to, ok := g.index[dependency]
	if !ok {
		return false
	}
	out := g.outgoing[from]
	for i, v := range out {
		if v == to {
			g.outgoing[from] = append(out[:i:i], out[i+1:]...)
			return true
		}
	}
	return false
}

// ClearEdges drops every dependency of task.
func (g *DependencyGraph) ClearEdges(task primitive.ObjectID) {
	if from, ok := g.index[task]; ok {
		g.outgoing[from] = nil
	}
}

// Dependencies returns the ids task depends on, in insertion order.
func (g *DependencyGraph) Dependencies(task primitive.ObjectID) []primitive.ObjectID {
	from, ok := g.index[task]
	if !ok {
		return nil
	}
	out := make([]primitive.ObjectID, 0, len(g.outgoing[from]))
	for _, v := range g.outgoing[from] {
		out = append(out, g.ids[v])
	}
	return out
}

// pathBetween runs an iterative depth-first search and returns the node
// indices of a path src ... dst, or nil when dst is unreachable.
func (g *DependencyGraph) pathBetween(src, dst int) []int {
	parent := make([]int, len(g.ids))
	for i := range parent {
		parent[i] = -1
	}
	visited := make([]bool, len(g.ids))
	stack := []int{src}
	visited[src] = true
	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if u == dst {
			var path []int
			for v := dst; v != -1; v = parent[v] {
				path = append(path, v)
			}
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return path
		}
		for _, v := range g.outgoing[u] {
			if !visited[v] {
				visited[v] = true
				parent[v] = u
				stack = append(stack, v)
			}
		}
	}
	return nil
}
