// Package session keeps the draft of a project being edited together with the
// snapshot the next allocation edit is compared against.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/viabilidade/backend/internal/allocation"
	"github.com/viabilidade/backend/internal/model"
)

// ErrNotFound is returned for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 12 * time.Hour

// State is one edit session.
type State struct {
	ID        string                        `json:"id"`
	ProjectID string                        `json:"project_id"`
	Project   *model.Project                `json:"project"`
	Previous  map[model.Kind]allocation.Set `json:"previous"`
	UpdatedAt time.Time                     `json:"updated_at"`
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	c.Project = s.Project.Clone()
	if s.Previous != nil {
		c.Previous = make(map[model.Kind]allocation.Set, len(s.Previous))
		for k, v := range s.Previous {
			c.Previous[k] = v.Clone()
		}
	}
	return &c
}

// Store persists sessions. Updates of one session are serialized; fn works on a
// copy and nothing is stored when it returns an error.
type Store interface {
	Create(ctx context.Context, s *State) error
	Get(ctx context.Context, id string) (*State, error)
	Update(ctx context.Context, id string, fn func(*State) error) (*State, error)
	Delete(ctx context.Context, id string) error
}
