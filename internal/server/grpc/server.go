// Package grpc exposes the capsule services over gRPC.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/api"
	"github.com/dmitrijs2005/timecapsule/internal/capsule"
	"github.com/dmitrijs2005/timecapsule/internal/friends"
	"github.com/dmitrijs2005/timecapsule/internal/invites"
	"github.com/dmitrijs2005/timecapsule/internal/logging"
	"github.com/dmitrijs2005/timecapsule/internal/server/models"
	"github.com/dmitrijs2005/timecapsule/internal/server/services"
	"google.golang.org/grpc"
)

type UserService interface {
	Register(ctx context.Context, email, displayName string, salt, verifier []byte) (*models.User, error)
	GetSalt(ctx context.Context, email string) ([]byte, error)
	Login(ctx context.Context, email string, verifierCandidate []byte) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type CapsuleService interface {
	Create(ctx context.Context, ownerID string, in services.CreateInput) (*capsule.Capsule, error)
	Open(ctx context.Context, userID, capsuleID string) (*services.OpenResult, error)
	MarkOpened(ctx context.Context, userID, capsuleID string) error
	ListSent(ctx context.Context, ownerID string) ([]*models.StoredCapsule, error)
	ListReceived(ctx context.Context, userID string) ([]*models.StoredCapsule, error)
}

type FriendService interface {
	Request(ctx context.Context, userID, email string) (*friends.Edge, error)
	Accept(ctx context.Context, userID, email string) (*friends.Edge, error)
	Decline(ctx context.Context, userID, email string) (*friends.Edge, error)
	Block(ctx context.Context, userID, email string) (*friends.Edge, error)
	Overview(ctx context.Context, userID string) (*services.FriendsOverview, error)
	Eligible(ctx context.Context, userID string) ([]models.Connection, error)
}

type InviteService interface {
	Send(ctx context.Context, inviterID, email, message string) (*invites.Invite, bool, error)
	Accept(ctx context.Context, userID, token string) (*invites.Invite, error)
	List(ctx context.Context, inviterID string) ([]*invites.Invite, error)
}

type GRPCServer struct {
	address   string
	users     UserService
	capsules  CapsuleService
	friends   FriendService
	invites   InviteService
	logger    logging.Logger
	jwtSecret []byte

	// now is the server clock reported to clients.
	now func() time.Time
}

var _ api.CapsuleServiceServer = (*GRPCServer)(nil)

func NewGRPCServer(a string, l logging.Logger, us UserService, cs CapsuleService,
	fs FriendService, is InviteService, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		users:     us,
		capsules:  cs,
		friends:   fs,
		invites:   is,
		jwtSecret: []byte(secretKey),
		now:       time.Now,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))
	api.RegisterCapsuleServiceServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
