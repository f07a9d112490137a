package service

import (
	"sort"

	"github.com/pesio-ai/be-cr-requests/internal/repository"
)

// ProcessGraph is a directed graph over process definitions: an edge runs
// from A to B iff A's next-process reference equals B's id. Built fresh from
// the stored definitions on each routing operation; construction is linear
// in the number of processes.
//
// Nothing at the data level enforces acyclicity, so every lookup is
// defensive: self-loops and dangling successor references resolve to "no
// successor", and walks carry a visited set.
type ProcessGraph struct {
	processes map[string]*repository.Process
	inDegree  map[string]int
	ordered   []*repository.Process // name-ascending
}

// BuildProcessGraph constructs the graph from the full set of stored
// processes.
func BuildProcessGraph(processes []*repository.Process) *ProcessGraph {
	g := &ProcessGraph{
		processes: make(map[string]*repository.Process, len(processes)),
		inDegree:  make(map[string]int, len(processes)),
		ordered:   make([]*repository.Process, 0, len(processes)),
	}

	for _, process := range processes {
		g.processes[process.ID] = process
		g.ordered = append(g.ordered, process)
		if _, ok := g.inDegree[process.ID]; !ok {
			g.inDegree[process.ID] = 0
		}
	}
	sort.Slice(g.ordered, func(i, j int) bool { return g.ordered[i].Name < g.ordered[j].Name })

	for _, process := range processes {
		next := process.NextProcessID
		if next == nil || *next == process.ID {
			continue // sink, or self-loop tolerated as sink
		}
		if _, ok := g.processes[*next]; !ok {
			continue // dangling reference, no edge
		}
		g.inDegree[*next]++
	}

	return g
}

// Process returns a node by id, or nil.
func (g *ProcessGraph) Process(id string) *repository.Process {
	return g.processes[id]
}

// EntryProcess returns the first graph source (no incoming edge) by name
// order, or nil when the graph is empty or fully cyclic. Name order is the
// fixed tie-break when several entry points exist.
func (g *ProcessGraph) EntryProcess() *repository.Process {
	for _, process := range g.ordered {
		if g.inDegree[process.ID] == 0 {
			return process
		}
	}
	return nil
}

// SuccessorOf returns the process the given one points at, or nil when the
// flow ends there (no pointer, unknown id, self-loop or dangling reference).
func (g *ProcessGraph) SuccessorOf(id string) *repository.Process {
	process, ok := g.processes[id]
	if !ok || process.NextProcessID == nil || *process.NextProcessID == id {
		return nil
	}
	return g.processes[*process.NextProcessID]
}

// EstimatedDays sums each process's minimum sector SLA along the successor
// chain starting at fromID. The visited set terminates the walk if the
// chain loops.
func (g *ProcessGraph) EstimatedDays(fromID string) (int, bool) {
	process, ok := g.processes[fromID]
	if !ok {
		return 0, false
	}

	visited := make(map[string]bool, len(g.processes))
	total := 0
	for process != nil && !visited[process.ID] {
		visited[process.ID] = true
		total += minSectorSLA(process)
		process = g.SuccessorOf(process.ID)
	}
	return total, true
}

func minSectorSLA(process *repository.Process) int {
	min := 0
	for i, sector := range process.Sectors {
		if i == 0 || sector.SLADays < min {
			min = sector.SLADays
		}
	}
	return min
}

// ── Graph view ────────────────────────────────────────────────────────────────

// GraphNode is one process in the exported graph configuration.
type GraphNode struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	NextProcessID *string  `json:"next_process_id"`
	Sectors       []string `json:"sectors"`
}

// GraphEdge is one directed edge in the exported graph configuration.
type GraphEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// GraphView is the full process graph configuration for calling layers.
type GraphView struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// View exports the graph as nodes and edges, name-ordered.
func (g *ProcessGraph) View() *GraphView {
	view := &GraphView{
		Nodes: make([]GraphNode, 0, len(g.ordered)),
		Edges: make([]GraphEdge, 0, len(g.ordered)),
	}

	for _, process := range g.ordered {
		sectorNames := make([]string, 0, len(process.Sectors))
		for _, sector := range process.Sectors {
			sectorNames = append(sectorNames, sector.Name)
		}
		view.Nodes = append(view.Nodes, GraphNode{
			ID:            process.ID,
			Name:          process.Name,
			NextProcessID: process.NextProcessID,
			Sectors:       sectorNames,
		})

		if successor := g.SuccessorOf(process.ID); successor != nil {
			view.Edges = append(view.Edges, GraphEdge{From: process.ID, To: successor.ID})
		}
	}
	return view
}
