package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/timecapsule/internal/common"
	"github.com/dmitrijs2005/timecapsule/internal/dbx"
	"github.com/dmitrijs2005/timecapsule/internal/friends"
	"github.com/dmitrijs2005/timecapsule/internal/server/repositories/repomanager"
)

// loadEdge returns the stored edge for the pair, or nil when there is none.
func loadEdge(ctx context.Context, m repomanager.RepositoryManager, db dbx.DBTX, a, b string) (*friends.Edge, error) {
	e, err := m.Friendships(db).Get(ctx, a, b)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, nil
	}
	return e, err
}

// saveEdge inserts next when there was no edge, otherwise updates it on
// condition that the stored status is still prev's.
func saveEdge(ctx context.Context, m repomanager.RepositoryManager, db dbx.DBTX, next, prev *friends.Edge) error {
	repo := m.Friendships(db)
	if prev == nil {
		return repo.Insert(ctx, next)
	}
	return repo.Update(ctx, next, prev.Status)
}
