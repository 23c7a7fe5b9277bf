package ordering

import (
	"fmt"
	"slices"

	"github.com/desertthunder/plst/internal/models"
	"github.com/desertthunder/plst/internal/shared"
)

// Engine applies ordering operations to playlists.
type Engine struct {
	newID func() string
}

// NewEngine returns an Engine that assigns random node ids.
func NewEngine() *Engine {
	return &Engine{newID: shared.GenerateID}
}

// NewEngineWithIDs returns an Engine that takes node ids from gen. Used for deterministic tests.
func NewEngineWithIDs(gen func() string) *Engine {
	return &Engine{newID: gen}
}

// Apply dispatches op to the matching engine method.
func (e *Engine) Apply(p *models.Playlist, op models.Operation) (*models.Playlist, error) {
	switch op.Kind {
	case models.OpAppend:
		return e.Append(p, op.SongID)
	case models.OpRemove:
		return e.RemoveNode(p, op.NodeID)
	case models.OpMove:
		return e.MoveNode(p, op.NodeID, op.NewIndex)
	default:
		return nil, fmt.Errorf("%w: unknown operation %q", shared.ErrInvalidOperation, op.Kind)
	}
}

// Append adds a new node for songID after the current tail.
func (e *Engine) Append(p *models.Playlist, songID string) (*models.Playlist, error) {
	if songID == "" {
		return nil, fmt.Errorf("%w: song id is required", shared.ErrInvalidOperation)
	}

	out := p.Clone()
	node := models.SongNode{ID: e.newID(), SongID: songID, PrevID: out.TailID}
	if _, taken := out.Nodes[node.ID]; taken {
		return nil, fmt.Errorf("%w: generated node id %s already in use", shared.ErrInvariantViolation, node.ID)
	}

	if out.TailID == "" {
		out.HeadID = node.ID
	} else {
		tail, ok := out.Nodes[out.TailID]
		if !ok {
			return nil, invalid(ReasonDanglingTail)
		}
		tail.NextID = node.ID
		out.Nodes[tail.ID] = tail
	}

	out.Nodes[node.ID] = node
	out.TailID = node.ID
	return out, nil
}

// RemoveNode unlinks and deletes nodeID.
func (e *Engine) RemoveNode(p *models.Playlist, nodeID string) (*models.Playlist, error) {
	node, ok := p.Nodes[nodeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrNodeNotFound, nodeID)
	}

	out := p.Clone()
	switch {
	case node.PrevID == "" && node.NextID == "":
		out.HeadID, out.TailID = "", ""
	case node.PrevID == "":
		next := out.Nodes[node.NextID]
		next.PrevID = ""
		out.Nodes[next.ID] = next
		out.HeadID = next.ID
	case node.NextID == "":
		prev := out.Nodes[node.PrevID]
		prev.NextID = ""
		out.Nodes[prev.ID] = prev
		out.TailID = prev.ID
	default:
		prev, next := out.Nodes[node.PrevID], out.Nodes[node.NextID]
		prev.NextID, next.PrevID = next.ID, prev.ID
		out.Nodes[prev.ID] = prev
		out.Nodes[next.ID] = next
	}

	delete(out.Nodes, nodeID)
	return out, nil
}

// MoveNode repositions nodeID so it sits at newIndex of the resulting order.
//
// newIndex counts from zero in the order with the node already taken out, so it must lie in [0, Len()-1].
func (e *Engine) MoveNode(p *models.Playlist, nodeID string, newIndex int) (*models.Playlist, error) {
	if _, ok := p.Nodes[nodeID]; !ok {
		return nil, fmt.Errorf("%w: node %s is not in playlist %s", shared.ErrInvalidOperation, nodeID, p.ID)
	}
	if newIndex < 0 || newIndex > p.Len()-1 {
		return nil, fmt.Errorf("%w: index %d outside [0, %d]", shared.ErrInvalidOperation, newIndex, p.Len()-1)
	}

	order, err := walk(p)
	if err != nil {
		return nil, err
	}

	current := slices.Index(order, nodeID)
	order = slices.Delete(order, current, current+1)
	order = slices.Insert(order, newIndex, nodeID)

	out := p.Clone()
	relink(out, order)
	return out, nil
}

// Sequence returns the canonical head-to-tail order. Only node and song ids are filled in.
//
// A walk that does not end within Len() steps means the links are corrupt and yields [shared.ErrInvariantViolation].
func (e *Engine) Sequence(p *models.Playlist) ([]models.SongRef, error) {
	order, err := walk(p)
	if err != nil {
		return nil, err
	}

	refs := make([]models.SongRef, len(order))
	for i, id := range order {
		refs[i] = models.SongRef{NodeID: id, SongID: p.Nodes[id].SongID}
	}
	return refs, nil
}

// walk follows next links from the head, stopping after Len() nodes.
func walk(p *models.Playlist) ([]string, error) {
	order := make([]string, 0, p.Len())
	for id := p.HeadID; id != ""; {
		if len(order) == p.Len() {
			return nil, invalid(ReasonCycleOrUnreachable)
		}
		node, ok := p.Nodes[id]
		if !ok {
			return nil, invalid(ReasonDanglingNext)
		}
		order = append(order, id)
		id = node.NextID
	}

	if len(order) != p.Len() {
		return nil, invalid(ReasonCycleOrUnreachable)
	}
	return order, nil
}

// relink rewrites every node's neighbors, the head and the tail from order.
func relink(p *models.Playlist, order []string) {
	p.HeadID, p.TailID = "", ""
	for i, id := range order {
		node := p.Nodes[id]
		node.PrevID, node.NextID = "", ""
		if i > 0 {
			node.PrevID = order[i-1]
		}
		if i < len(order)-1 {
			node.NextID = order[i+1]
		}
		p.Nodes[id] = node
	}
	if len(order) > 0 {
		p.HeadID, p.TailID = order[0], order[len(order)-1]
	}
}
