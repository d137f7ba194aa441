package client

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/api"
	"github.com/dmitrijs2005/timecapsule/internal/common"
	"github.com/dmitrijs2005/timecapsule/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// authorityAPI is the generated-style client surface GRPCClient drives.
// *api.CapsuleServiceClient implements it; tests substitute a fake.
type authorityAPI interface {
	Register(ctx context.Context, in *api.RegisterRequest, opts ...grpc.CallOption) (*api.RegisterResponse, error)
	GetSalt(ctx context.Context, in *api.GetSaltRequest, opts ...grpc.CallOption) (*api.GetSaltResponse, error)
	Login(ctx context.Context, in *api.LoginRequest, opts ...grpc.CallOption) (*api.LoginResponse, error)
	RefreshToken(ctx context.Context, in *api.RefreshTokenRequest, opts ...grpc.CallOption) (*api.RefreshTokenResponse, error)
	Ping(ctx context.Context, in *api.PingRequest, opts ...grpc.CallOption) (*api.PingResponse, error)
	CreateCapsule(ctx context.Context, in *api.CreateCapsuleRequest, opts ...grpc.CallOption) (*api.CreateCapsuleResponse, error)
	ListSent(ctx context.Context, in *api.ListCapsulesRequest, opts ...grpc.CallOption) (*api.ListCapsulesResponse, error)
	ListReceived(ctx context.Context, in *api.ListCapsulesRequest, opts ...grpc.CallOption) (*api.ListCapsulesResponse, error)
	OpenCapsule(ctx context.Context, in *api.CapsuleRequest, opts ...grpc.CallOption) (*api.OpenCapsuleResponse, error)
	MarkOpened(ctx context.Context, in *api.CapsuleRequest, opts ...grpc.CallOption) (*api.MarkOpenedResponse, error)
	RequestFriend(ctx context.Context, in *api.FriendRequest, opts ...grpc.CallOption) (*api.FriendResponse, error)
	AcceptFriend(ctx context.Context, in *api.FriendRequest, opts ...grpc.CallOption) (*api.FriendResponse, error)
	DeclineFriend(ctx context.Context, in *api.FriendRequest, opts ...grpc.CallOption) (*api.FriendResponse, error)
	BlockUser(ctx context.Context, in *api.FriendRequest, opts ...grpc.CallOption) (*api.FriendResponse, error)
	ListFriends(ctx context.Context, in *api.ListFriendsRequest, opts ...grpc.CallOption) (*api.ListFriendsResponse, error)
	EligibleRecipients(ctx context.Context, in *api.ListFriendsRequest, opts ...grpc.CallOption) (*api.EligibleRecipientsResponse, error)
	SendInvite(ctx context.Context, in *api.SendInviteRequest, opts ...grpc.CallOption) (*api.SendInviteResponse, error)
	AcceptInvite(ctx context.Context, in *api.AcceptInviteRequest, opts ...grpc.CallOption) (*api.AcceptInviteResponse, error)
	ListInvites(ctx context.Context, in *api.ListInvitesRequest, opts ...grpc.CallOption) (*api.ListInvitesResponse, error)
}

var _ authorityAPI = (*api.CapsuleServiceClient)(nil)

var _ Client = (*GRPCClient)(nil)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      authorityAPI
	logger      logging.Logger

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	// refreshMu serialises token rotation; the server invalidates a
	// refresh token on first use.
	refreshMu sync.Mutex
}

func NewGRPCClient(endpointURL string, logger logging.Logger) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, logger: logger.With("module", "grpcclient")}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {
	conn, err := grpc.NewClient(s.endpointURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor))
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = api.NewCapsuleServiceClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) tokens() (access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

func (s *GRPCClient) setTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = access
	s.refreshToken = refresh
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)
	return metadata.NewOutgoingContext(ctx, md)
}

// tokenExpired reports whether err is the server rejecting an expired access
// token, as opposed to any other authentication failure.
func tokenExpired(err error, trailer metadata.MD) bool {
	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated {
		return false
	}
	if vals := trailer.Get(api.ReasonKey); len(vals) > 0 {
		return vals[0] == "token_expired"
	}
	return st.Message() == common.ErrTokenExpired.Error()
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	access, _ := s.tokens()

	var trailer metadata.MD
	callOpts := append(opts[:len(opts):len(opts)], grpc.Trailer(&trailer))

	err := invoker(withAccessToken(ctx, access), method, req, reply, cc, callOpts...)
	if err == nil || method == api.FullMethod(api.MethodRefreshToken) || !tokenExpired(err, trailer) {
		return err
	}

	if rerr := s.refresh(ctx, access); rerr != nil {
		s.logger.Debug(ctx, "token refresh failed", "error", rerr)
		return err
	}

	access, _ = s.tokens()
	return invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
}

// refresh rotates the token pair unless another call already replaced the
// stale access token.
func (s *GRPCClient) refresh(ctx context.Context, stale string) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	access, refresh := s.tokens()
	if access != stale {
		return nil
	}
	if refresh == "" {
		return ErrUnauthorized
	}

	resp, err := s.client.RefreshToken(ctx, &api.RefreshTokenRequest{RefreshToken: refresh})
	if err != nil {
		return err
	}
	s.setTokens(resp.AccessToken, resp.RefreshToken)
	s.logger.Debug(ctx, "tokens refreshed")
	return nil
}

func (s *GRPCClient) Register(ctx context.Context, email, displayName string, salt, verifier []byte) error {
	var tr metadata.MD
	req := &api.RegisterRequest{Email: email, DisplayName: displayName, Salt: salt, Verifier: verifier}
	if _, err := s.client.Register(ctx, req, grpc.Trailer(&tr)); err != nil {
		return mapError(err, tr)
	}
	return nil
}

func (s *GRPCClient) GetSalt(ctx context.Context, email string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 12*time.Second)
	defer cancel()

	var tr metadata.MD
	resp, err := s.client.GetSalt(ctx, &api.GetSaltRequest{Email: email}, grpc.Trailer(&tr))
	if err != nil {
		return nil, mapError(err, tr)
	}
	return resp.Salt, nil
}

// Login stores the issued token pair for later calls.
func (s *GRPCClient) Login(ctx context.Context, email string, verifier []byte) (*api.User, error) {
	var tr metadata.MD
	resp, err := s.client.Login(ctx, &api.LoginRequest{Email: email, Verifier: verifier}, grpc.Trailer(&tr))
	if err != nil {
		return nil, mapError(err, tr)
	}
	s.setTokens(resp.AccessToken, resp.RefreshToken)
	return &resp.User, nil
}

func (s *GRPCClient) Ping(ctx context.Context) (time.Time, error) {
	var tr metadata.MD
	resp, err := s.client.Ping(ctx, &api.PingRequest{}, grpc.Trailer(&tr))
	if err != nil {
		return time.Time{}, mapError(err, tr)
	}
	if resp.Status != "OK" {
		return time.Time{}, ErrUnavailable
	}
	return resp.ServerTime, nil
}

func (s *GRPCClient) CreateCapsule(ctx context.Context, req *api.CreateCapsuleRequest) (*api.Capsule, error) {
	var tr metadata.MD
	resp, err := s.client.CreateCapsule(ctx, req, grpc.Trailer(&tr))
	if err != nil {
		return nil, mapError(err, tr)
	}
	return &resp.Capsule, nil
}

func (s *GRPCClient) ListSent(ctx context.Context) (*api.ListCapsulesResponse, error) {
	var tr metadata.MD
	resp, err := s.client.ListSent(ctx, &api.ListCapsulesRequest{}, grpc.Trailer(&tr))
	if err != nil {
		return nil, mapError(err, tr)
	}
	return resp, nil
}

func (s *GRPCClient) ListReceived(ctx context.Context) (*api.ListCapsulesResponse, error) {
	var tr metadata.MD
	resp, err := s.client.ListReceived(ctx, &api.ListCapsulesRequest{}, grpc.Trailer(&tr))
	if err != nil {
		return nil, mapError(err, tr)
	}
	return resp, nil
}

// OpenCapsule asks the server for the sealed bundle. Before the unlock
// instant it fails with a *common.NotYetError.
func (s *GRPCClient) OpenCapsule(ctx context.Context, capsuleID string) (*api.OpenCapsuleResponse, error) {
	var tr metadata.MD
	resp, err := s.client.OpenCapsule(ctx, &api.CapsuleRequest{CapsuleID: capsuleID}, grpc.Trailer(&tr))
	if err != nil {
		return nil, mapError(err, tr)
	}
	return resp, nil
}

func (s *GRPCClient) MarkOpened(ctx context.Context, capsuleID string) error {
	var tr metadata.MD
	if _, err := s.client.MarkOpened(ctx, &api.CapsuleRequest{CapsuleID: capsuleID}, grpc.Trailer(&tr)); err != nil {
		return mapError(err, tr)
	}
	return nil
}

type friendCall func(ctx context.Context, in *api.FriendRequest, opts ...grpc.CallOption) (*api.FriendResponse, error)

func (s *GRPCClient) friend(ctx context.Context, call friendCall, email string) (string, error) {
	var tr metadata.MD
	resp, err := call(ctx, &api.FriendRequest{Email: email}, grpc.Trailer(&tr))
	if err != nil {
		return "", mapError(err, tr)
	}
	return resp.Status, nil
}

func (s *GRPCClient) RequestFriend(ctx context.Context, email string) (string, error) {
	return s.friend(ctx, s.client.RequestFriend, email)
}

func (s *GRPCClient) AcceptFriend(ctx context.Context, email string) (string, error) {
	return s.friend(ctx, s.client.AcceptFriend, email)
}

func (s *GRPCClient) DeclineFriend(ctx context.Context, email string) (string, error) {
	return s.friend(ctx, s.client.DeclineFriend, email)
}

func (s *GRPCClient) BlockUser(ctx context.Context, email string) (string, error) {
	return s.friend(ctx, s.client.BlockUser, email)
}

func (s *GRPCClient) ListFriends(ctx context.Context) (*api.ListFriendsResponse, error) {
	var tr metadata.MD
	resp, err := s.client.ListFriends(ctx, &api.ListFriendsRequest{}, grpc.Trailer(&tr))
	if err != nil {
		return nil, mapError(err, tr)
	}
	return resp, nil
}

func (s *GRPCClient) EligibleRecipients(ctx context.Context) ([]api.Friend, error) {
	var tr metadata.MD
	resp, err := s.client.EligibleRecipients(ctx, &api.ListFriendsRequest{}, grpc.Trailer(&tr))
	if err != nil {
		return nil, mapError(err, tr)
	}
	return resp.Recipients, nil
}

func (s *GRPCClient) SendInvite(ctx context.Context, email, message string) (*api.Invite, bool, error) {
	var tr metadata.MD
	resp, err := s.client.SendInvite(ctx, &api.SendInviteRequest{Email: email, Message: message}, grpc.Trailer(&tr))
	if err != nil {
		return nil, false, mapError(err, tr)
	}
	return &resp.Invite, resp.Resent, nil
}

func (s *GRPCClient) AcceptInvite(ctx context.Context, token string) (*api.Invite, error) {
	var tr metadata.MD
	resp, err := s.client.AcceptInvite(ctx, &api.AcceptInviteRequest{Token: token}, grpc.Trailer(&tr))
	if err != nil {
		return nil, mapError(err, tr)
	}
	return &resp.Invite, nil
}

func (s *GRPCClient) ListInvites(ctx context.Context) ([]api.Invite, error) {
	var tr metadata.MD
	resp, err := s.client.ListInvites(ctx, &api.ListInvitesRequest{}, grpc.Trailer(&tr))
	if err != nil {
		return nil, mapError(err, tr)
	}
	return resp.Invites, nil
}
