package api

import (
	"context"

	"google.golang.org/grpc"
)

// CapsuleServiceClient is the client side of CapsuleService.
type CapsuleServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCapsuleServiceClient(cc grpc.ClientConnInterface) *CapsuleServiceClient {
	return &CapsuleServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CapsuleServiceClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	return invoke[RegisterResponse](ctx, c.cc, MethodRegister, in, opts)
}

func (c *CapsuleServiceClient) GetSalt(ctx context.Context, in *GetSaltRequest, opts ...grpc.CallOption) (*GetSaltResponse, error) {
	return invoke[GetSaltResponse](ctx, c.cc, MethodGetSalt, in, opts)
}

func (c *CapsuleServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c.cc, MethodLogin, in, opts)
}

func (c *CapsuleServiceClient) RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*RefreshTokenResponse, error) {
	return invoke[RefreshTokenResponse](ctx, c.cc, MethodRefreshToken, in, opts)
}

func (c *CapsuleServiceClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, MethodPing, in, opts)
}

func (c *CapsuleServiceClient) CreateCapsule(ctx context.Context, in *CreateCapsuleRequest, opts ...grpc.CallOption) (*CreateCapsuleResponse, error) {
	return invoke[CreateCapsuleResponse](ctx, c.cc, MethodCreateCapsule, in, opts)
}

func (c *CapsuleServiceClient) ListSent(ctx context.Context, in *ListCapsulesRequest, opts ...grpc.CallOption) (*ListCapsulesResponse, error) {
	return invoke[ListCapsulesResponse](ctx, c.cc, MethodListSent, in, opts)
}

func (c *CapsuleServiceClient) ListReceived(ctx context.Context, in *ListCapsulesRequest, opts ...grpc.CallOption) (*ListCapsulesResponse, error) {
	return invoke[ListCapsulesResponse](ctx, c.cc, MethodListReceived, in, opts)
}

func (c *CapsuleServiceClient) OpenCapsule(ctx context.Context, in *CapsuleRequest, opts ...grpc.CallOption) (*OpenCapsuleResponse, error) {
	return invoke[OpenCapsuleResponse](ctx, c.cc, MethodOpenCapsule, in, opts)
}

func (c *CapsuleServiceClient) MarkOpened(ctx context.Context, in *CapsuleRequest, opts ...grpc.CallOption) (*MarkOpenedResponse, error) {
	return invoke[MarkOpenedResponse](ctx, c.cc, MethodMarkOpened, in, opts)
}

func (c *CapsuleServiceClient) RequestFriend(ctx context.Context, in *FriendRequest, opts ...grpc.CallOption) (*FriendResponse, error) {
	return invoke[FriendResponse](ctx, c.cc, MethodRequestFriend, in, opts)
}

func (c *CapsuleServiceClient) AcceptFriend(ctx context.Context, in *FriendRequest, opts ...grpc.CallOption) (*FriendResponse, error) {
	return invoke[FriendResponse](ctx, c.cc, MethodAcceptFriend, in, opts)
}

func (c *CapsuleServiceClient) DeclineFriend(ctx context.Context, in *FriendRequest, opts ...grpc.CallOption) (*FriendResponse, error) {
	return invoke[FriendResponse](ctx, c.cc, MethodDeclineFriend, in, opts)
}

func (c *CapsuleServiceClient) BlockUser(ctx context.Context, in *FriendRequest, opts ...grpc.CallOption) (*FriendResponse, error) {
	return invoke[FriendResponse](ctx, c.cc, MethodBlockUser, in, opts)
}

func (c *CapsuleServiceClient) ListFriends(ctx context.Context, in *ListFriendsRequest, opts ...grpc.CallOption) (*ListFriendsResponse, error) {
	return invoke[ListFriendsResponse](ctx, c.cc, MethodListFriends, in, opts)
}

func (c *CapsuleServiceClient) EligibleRecipients(ctx context.Context, in *ListFriendsRequest, opts ...grpc.CallOption) (*EligibleRecipientsResponse, error) {
	return invoke[EligibleRecipientsResponse](ctx, c.cc, MethodEligibleRecipients, in, opts)
}

func (c *CapsuleServiceClient) SendInvite(ctx context.Context, in *SendInviteRequest, opts ...grpc.CallOption) (*SendInviteResponse, error) {
	return invoke[SendInviteResponse](ctx, c.cc, MethodSendInvite, in, opts)
}

func (c *CapsuleServiceClient) AcceptInvite(ctx context.Context, in *AcceptInviteRequest, opts ...grpc.CallOption) (*AcceptInviteResponse, error) {
	return invoke[AcceptInviteResponse](ctx, c.cc, MethodAcceptInvite, in, opts)
}

func (c *CapsuleServiceClient) ListInvites(ctx context.Context, in *ListInvitesRequest, opts ...grpc.CallOption) (*ListInvitesResponse, error) {
	return invoke[ListInvitesResponse](ctx, c.cc, MethodListInvites, in, opts)
}
