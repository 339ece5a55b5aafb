package graph

// MemGraph is a simple in-memory Graph used across this module's test
// suites, standing in for the gossip-ingest collaborator.
type MemGraph struct {
	nodes    map[Vertex]Node
	channels map[Vertex][]*Channel
}

// NewMemGraph constructs an empty in-memory graph.
func NewMemGraph() *MemGraph {
	return &MemGraph{
		nodes:    make(map[Vertex]Node),
		channels: make(map[Vertex][]*Channel),
	}
}

// AddNode inserts or replaces a node record.
func (g *MemGraph) AddNode(n Node) {
	g.nodes[n.ID] = n
}

// AddChannel inserts a directed half-channel. To model a bidirectional
// channel, call AddChannel twice with source/destination swapped (and
// typically a different ID per direction, as gossip does).
func (g *MemGraph) AddChannel(c *Channel) {
	g.channels[c.Source] = append(g.channels[c.Source], c)
	if _, ok := g.nodes[c.Source]; !ok {
		g.nodes[c.Source] = Node{ID: c.Source}
	}
	if _, ok := g.nodes[c.Destination]; !ok {
		g.nodes[c.Destination] = Node{ID: c.Destination}
	}
}

// RemoveNode deletes a node and its outgoing channels, simulating a
// gossip-driven forget between pathfinding steps.
func (g *MemGraph) RemoveNode(v Vertex) {
	delete(g.nodes, v)
	delete(g.channels, v)
}

func (g *MemGraph) Node(v Vertex) (Node, bool) {
	n, ok := g.nodes[v]
	return n, ok
}

func (g *MemGraph) ForEachNode(fn func(Vertex) error) error {
	for v := range g.nodes {
		if err := fn(v); err != nil {
			return err
		}
	}
	return nil
}

func (g *MemGraph) ForEachChannel(v Vertex, fn func(*Channel) error) error {
	for _, c := range g.channels[v] {
		if err := fn(c); err != nil {
			return err
		}
	}
	return nil
}
