package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/common"
	"github.com/dmitrijs2005/timecapsule/internal/friends"
	"github.com/dmitrijs2005/timecapsule/internal/logging"
	"github.com/dmitrijs2005/timecapsule/internal/server/models"
	"github.com/dmitrijs2005/timecapsule/internal/server/repositories/repomanager"
)

// FriendsOverview groups a user's connections by what they can do with them.
type FriendsOverview struct {
	Friends  []models.Connection
	Incoming []models.Connection
	Outgoing []models.Connection
	// Blocked lists only the pairs the user blocked.
	Blocked []models.Connection
}

// FriendService applies the friends state machine to stored edges. Every
// write is conditional on the status the transition started from.
type FriendService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger

	// Now is the server clock.
	Now func() time.Time
}

func NewFriendService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *FriendService {
	return &FriendService{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "friends"),
		Now:         time.Now,
	}
}

// Request sends a friend request to the member registered under email.
// Unknown addresses yield common.ErrorNotFound; the caller may invite them.
func (s *FriendService) Request(ctx context.Context, userID, email string) (*friends.Edge, error) {
	other, err := s.repomanager.Users(s.db).GetByEmail(ctx, common.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}

	existing, err := s.edge(ctx, userID, other.ID)
	if err != nil {
		return nil, err
	}
	next, err := friends.Request(existing, userID, other.ID, s.Now())
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, next, existing); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "friend request", "from", userID, "to", other.ID)
	return next, nil
}

// Accept accepts the pending request from the member registered under email.
func (s *FriendService) Accept(ctx context.Context, userID, email string) (*friends.Edge, error) {
	return s.respond(ctx, userID, email, friends.Accept)
}

// Decline declines the pending request from the member registered under email.
func (s *FriendService) Decline(ctx context.Context, userID, email string) (*friends.Edge, error) {
	return s.respond(ctx, userID, email, friends.Decline)
}

func (s *FriendService) respond(ctx context.Context, userID, email string,
	transition func(*friends.Edge, string, time.Time) (*friends.Edge, error)) (*friends.Edge, error) {
	other, err := s.repomanager.Users(s.db).GetByEmail(ctx, common.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	existing, err := s.edge(ctx, userID, other.ID)
	if err != nil {
		return nil, err
	}
	next, err := transition(existing, userID, s.Now())
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, next, existing); err != nil {
		return nil, err
	}
	return next, nil
}

// Block blocks the member registered under email. Blocking is terminal for
// the pair.
func (s *FriendService) Block(ctx context.Context, userID, email string) (*friends.Edge, error) {
	other, err := s.repomanager.Users(s.db).GetByEmail(ctx, common.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	existing, err := s.edge(ctx, userID, other.ID)
	if err != nil {
		return nil, err
	}
	next, err := friends.Block(existing, userID, other.ID, s.Now())
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status == friends.StatusBlocked {
		return next, nil
	}
	if err := s.save(ctx, next, existing); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "user blocked", "by", userID, "other", other.ID)
	return next, nil
}

// Overview lists the user's connections.
func (s *FriendService) Overview(ctx context.Context, userID string) (*FriendsOverview, error) {
	conns, err := s.repomanager.Friendships(s.db).ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &FriendsOverview{}
	for _, c := range conns {
		switch c.Edge.Status {
		case friends.StatusAccepted:
			out.Friends = append(out.Friends, c)
		case friends.StatusPending:
			if c.Edge.AddresseeID == userID {
				out.Incoming = append(out.Incoming, c)
			} else {
				out.Outgoing = append(out.Outgoing, c)
			}
		case friends.StatusBlocked:
			if c.Edge.BlockedBy == userID {
				out.Blocked = append(out.Blocked, c)
			}
		}
	}
	return out, nil
}

// Eligible returns the friends the user may pick as capsule recipients.
func (s *FriendService) Eligible(ctx context.Context, userID string) ([]models.Connection, error) {
	conns, err := s.repomanager.Friendships(s.db).ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	edges := make([]friends.Edge, len(conns))
	byID := make(map[string]models.Connection, len(conns))
	for i, c := range conns {
		edges[i] = c.Edge
		byID[c.OtherID] = c
	}

	ids := friends.Eligible(edges, userID)
	out := make([]models.Connection, 0, len(ids))
	for _, id := range ids {
		out = append(out, byID[id])
	}
	return out, nil
}

func (s *FriendService) edge(ctx context.Context, a, b string) (*friends.Edge, error) {
	return loadEdge(ctx, s.repomanager, s.db, a, b)
}

func (s *FriendService) save(ctx context.Context, next, prev *friends.Edge) error {
	return saveEdge(ctx, s.repomanager, s.db, next, prev)
}
