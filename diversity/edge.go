package diversity

import "github.com/ZmnSCPxj/routingcore/graph"

// Edge is one link of the path-diversity ban chain: a (source,
// destination) node pair to ban every channel direction between, plus
// a pointer to the parent edge whose bans this one inherits.
//
// The original tal-allocated implementation ref-counts this chain so a
// child can outlive a queue that has moved on while its ancestors stay
// alive as long as any descendant references them. Go's garbage
// collector gives the same guarantee for free from an ordinary pointer
// chain — a reachable child keeps its ancestors reachable — so there is
// no separate refcount field here.
type Edge struct {
	Source      graph.Vertex
	Destination graph.Vertex
	Parent      *Edge
}

// ExcludedChannels walks e and every ancestor of e, returning the set
// of channel ids that must be banned: every half-channel between each
// link's two endpoints, in either direction, since a single-direction
// ban would let a forwarding node route around it over a parallel
// channel to the same peer.
func ExcludedChannels(g graph.Graph, e *Edge) (map[graph.ChannelID]bool, error) {
	banned := make(map[graph.ChannelID]bool)
	for cur := e; cur != nil; cur = cur.Parent {
		if err := g.ForEachChannel(cur.Source, func(ch *graph.Channel) error {
			if ch.Destination == cur.Destination {
				banned[ch.ID] = true
			}
			return nil
		}); err != nil {
			return nil, err
		}
		if err := g.ForEachChannel(cur.Destination, func(ch *graph.Channel) error {
			if ch.Destination == cur.Source {
				banned[ch.ID] = true
			}
			return nil
		}); err != nil {
			return nil, err
		}
	}
	return banned, nil
}
