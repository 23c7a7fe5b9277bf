package ordering

import (
	"errors"
	"testing"

	"github.com/desertthunder/plst/internal/models"
	"github.com/desertthunder/plst/internal/shared"
)

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		mustValidate(t, emptyPlaylist())
		mustValidate(t, build(t, counter(), "A"))
		mustValidate(t, build(t, counter(), "A", "B", "C"))
	})

	tests := []struct {
		name    string
		corrupt func(p *models.Playlist)
		reason  string
	}{
		{
			name:    "empty table with head",
			corrupt: func(p *models.Playlist) { p.Nodes = models.NodeTable{} },
			reason:  ReasonEmptyWithEnds,
		},
		{
			name:    "missing tail",
			corrupt: func(p *models.Playlist) { p.TailID = "" },
			reason:  ReasonMissingEnds,
		},
		{
			name: "key mismatch",
			corrupt: func(p *models.Playlist) {
				n := p.Nodes["n2"]
				n.ID = "other"
				p.Nodes["n2"] = n
			},
			reason: ReasonKeyMismatch,
		},
		{
			name: "dangling next",
			corrupt: func(p *models.Playlist) {
				n := p.Nodes["n2"]
				n.NextID = "ghost"
				p.Nodes["n2"] = n
			},
			reason: ReasonDanglingNext,
		},
		{
			name: "dangling prev",
			corrupt: func(p *models.Playlist) {
				n := p.Nodes["n2"]
				n.PrevID = "ghost"
				p.Nodes["n2"] = n
			},
			reason: ReasonDanglingPrev,
		},
		{
			name:    "head points elsewhere",
			corrupt: func(p *models.Playlist) { p.HeadID = "n2" },
			reason:  ReasonHeadMismatch,
		},
		{
			name:    "tail points elsewhere",
			corrupt: func(p *models.Playlist) { p.TailID = "n2" },
			reason:  ReasonTailMismatch,
		},
		{
			name: "second head",
			corrupt: func(p *models.Playlist) {
				p.Nodes["n4"] = models.SongNode{ID: "n4", SongID: "D", NextID: "n3"}
			},
			reason: ReasonHeadMismatch,
		},
		{
			name: "one-way link",
			corrupt: func(p *models.Playlist) {
				n := p.Nodes["n2"]
				n.PrevID = "n2"
				p.Nodes["n2"] = n
			},
			reason: ReasonAsymmetricLink,
		},
		{
			name: "cycle with detached chain",
			corrupt: func(p *models.Playlist) {
				// n1 -> n3, while n2 loops on itself
				n1, n2, n3 := p.Nodes["n1"], p.Nodes["n2"], p.Nodes["n3"]
				n1.NextID = "n3"
				n3.PrevID = "n1"
				n2.PrevID, n2.NextID = "n2", "n2"
				p.Nodes["n1"], p.Nodes["n2"], p.Nodes["n3"] = n1, n2, n3
			},
			reason: ReasonCycleOrUnreachable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := build(t, counter(), "A", "B", "C")
			tt.corrupt(p)

			err := Validate(p)
			var invalidErr *InvalidError
			if !errors.As(err, &invalidErr) {
				t.Fatalf("expected InvalidError, got %v", err)
			}
			if invalidErr.Reason != tt.reason {
				t.Errorf("expected reason %s, got %s", tt.reason, invalidErr.Reason)
			}
			if !errors.Is(err, shared.ErrInvariantViolation) {
				t.Error("InvalidError should unwrap to ErrInvariantViolation")
			}
		})
	}
}
