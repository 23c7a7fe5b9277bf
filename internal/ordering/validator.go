package ordering

import (
	"fmt"

	"github.com/desertthunder/plst/internal/models"
	"github.com/desertthunder/plst/internal/shared"
)

// Reasons reported by [Validate].
const (
	ReasonCycleOrUnreachable = "cycle-or-unreachable"
	ReasonEmptyWithEnds      = "empty-table-with-head-or-tail"
	ReasonMissingEnds        = "non-empty-table-without-head-or-tail"
	ReasonKeyMismatch        = "node-key-mismatch"
	ReasonDanglingPrev       = "dangling-prev"
	ReasonDanglingNext       = "dangling-next"
	ReasonDanglingTail       = "dangling-tail"
	ReasonHeadMismatch       = "head-mismatch"
	ReasonTailMismatch       = "tail-mismatch"
	ReasonAsymmetricLink     = "asymmetric-link"
)

// InvalidError reports a playlist whose node links break the ordering rules.
type InvalidError struct {
	Reason string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid playlist ordering: %s", e.Reason)
}

// Unwrap lets callers match [shared.ErrInvariantViolation].
func (e *InvalidError) Unwrap() error {
	return shared.ErrInvariantViolation
}

func invalid(reason string) error {
	return &InvalidError{Reason: reason}
}

// Validate returns nil when p's node table, head and tail are consistent and an [*InvalidError] otherwise.
func Validate(p *models.Playlist) error {
	n := p.Len()
	if n == 0 {
		if p.HeadID != "" || p.TailID != "" {
			return invalid(ReasonEmptyWithEnds)
		}
		return nil
	}
	if p.HeadID == "" || p.TailID == "" {
		return invalid(ReasonMissingEnds)
	}

	var heads, tails int
	for key, node := range p.Nodes {
		if node.ID != key {
			return invalid(ReasonKeyMismatch)
		}
		if node.PrevID == "" {
			heads++
			if key != p.HeadID {
				return invalid(ReasonHeadMismatch)
			}
		} else if _, ok := p.Nodes[node.PrevID]; !ok {
			return invalid(ReasonDanglingPrev)
		}
		if node.NextID == "" {
			tails++
			if key != p.TailID {
				return invalid(ReasonTailMismatch)
			}
		} else if _, ok := p.Nodes[node.NextID]; !ok {
			return invalid(ReasonDanglingNext)
		}
	}
	if heads != 1 {
		return invalid(ReasonHeadMismatch)
	}
	if tails != 1 {
		return invalid(ReasonTailMismatch)
	}

	if err := traverse(p, p.HeadID, p.TailID, func(node models.SongNode) (string, string) { return node.NextID, node.PrevID }); err != nil {
		return err
	}
	return traverse(p, p.TailID, p.HeadID, func(node models.SongNode) (string, string) { return node.PrevID, node.NextID })
}

// traverse walks from start using step, which yields the next id and the back link that next node must carry.
// It fails if the walk exceeds the table size, stops short of it, or ends anywhere but end.
func traverse(p *models.Playlist, start, end string, step func(models.SongNode) (forward, back string)) error {
	var (
		visited int
		last    string
	)
	for id := start; id != ""; {
		if visited == p.Len() {
			return invalid(ReasonCycleOrUnreachable)
		}
		node := p.Nodes[id]
		forward, _ := step(node)
		if forward != "" {
			if _, back := step(p.Nodes[forward]); back != id {
				return invalid(ReasonAsymmetricLink)
			}
		}
		visited++
		last = id
		id = forward
	}

	if visited != p.Len() || last != end {
		return invalid(ReasonCycleOrUnreachable)
	}
	return nil
}
