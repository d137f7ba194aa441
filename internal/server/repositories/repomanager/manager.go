package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/timecapsule/internal/dbx"
	"github.com/dmitrijs2005/timecapsule/internal/server/repositories/capsules"
	"github.com/dmitrijs2005/timecapsule/internal/server/repositories/friendships"
	"github.com/dmitrijs2005/timecapsule/internal/server/repositories/invitations"
	"github.com/dmitrijs2005/timecapsule/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/timecapsule/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a handle, so the same service
// code runs against *sql.DB or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Capsules(db dbx.DBTX) capsules.Repository
	Friendships(db dbx.DBTX) friendships.Repository
	Invitations(db dbx.DBTX) invitations.Repository
}
