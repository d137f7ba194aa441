// Package api declares the capsule service wire contract: the messages, a
// JSON codec, and the gRPC service descriptor with its client stub.
//
// There is no generated code. The descriptor is declared by hand and every
// call is sent with the json content subtype.
package api

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "timecapsule.v1.CapsuleService"

const (
	MethodRegister           = "Register"
	MethodGetSalt            = "GetSalt"
	MethodLogin              = "Login"
	MethodRefreshToken       = "RefreshToken"
	MethodPing               = "Ping"
	MethodCreateCapsule      = "CreateCapsule"
	MethodListSent           = "ListSent"
	MethodListReceived       = "ListReceived"
	MethodOpenCapsule        = "OpenCapsule"
	MethodMarkOpened         = "MarkOpened"
	MethodRequestFriend      = "RequestFriend"
	MethodAcceptFriend       = "AcceptFriend"
	MethodDeclineFriend      = "DeclineFriend"
	MethodBlockUser          = "BlockUser"
	MethodListFriends        = "ListFriends"
	MethodEligibleRecipients = "EligibleRecipients"
	MethodSendInvite         = "SendInvite"
	MethodAcceptInvite       = "AcceptInvite"
	MethodListInvites        = "ListInvites"
)

// FullMethod returns the path gRPC uses for method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// PublicMethods can be called without an access token.
var PublicMethods = map[string]bool{
	FullMethod(MethodRegister):     true,
	FullMethod(MethodGetSalt):      true,
	FullMethod(MethodLogin):        true,
	FullMethod(MethodRefreshToken): true,
	FullMethod(MethodPing):         true,
}

// CapsuleServiceServer is implemented by the authority.
type CapsuleServiceServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	GetSalt(context.Context, *GetSaltRequest) (*GetSaltResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*RefreshTokenResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)

	CreateCapsule(context.Context, *CreateCapsuleRequest) (*CreateCapsuleResponse, error)
	ListSent(context.Context, *ListCapsulesRequest) (*ListCapsulesResponse, error)
	ListReceived(context.Context, *ListCapsulesRequest) (*ListCapsulesResponse, error)
	OpenCapsule(context.Context, *CapsuleRequest) (*OpenCapsuleResponse, error)
	MarkOpened(context.Context, *CapsuleRequest) (*MarkOpenedResponse, error)

	RequestFriend(context.Context, *FriendRequest) (*FriendResponse, error)
	AcceptFriend(context.Context, *FriendRequest) (*FriendResponse, error)
	DeclineFriend(context.Context, *FriendRequest) (*FriendResponse, error)
	BlockUser(context.Context, *FriendRequest) (*FriendResponse, error)
	ListFriends(context.Context, *ListFriendsRequest) (*ListFriendsResponse, error)
	EligibleRecipients(context.Context, *ListFriendsRequest) (*EligibleRecipientsResponse, error)

	SendInvite(context.Context, *SendInviteRequest) (*SendInviteResponse, error)
	AcceptInvite(context.Context, *AcceptInviteRequest) (*AcceptInviteResponse, error)
	ListInvites(context.Context, *ListInvitesRequest) (*ListInvitesResponse, error)
}

func unary[Req, Resp any](method string, call func(CapsuleServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(CapsuleServiceServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes CapsuleService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CapsuleServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodRegister, CapsuleServiceServer.Register),
		unary(MethodGetSalt, CapsuleServiceServer.GetSalt),
		unary(MethodLogin, CapsuleServiceServer.Login),
		unary(MethodRefreshToken, CapsuleServiceServer.RefreshToken),
		unary(MethodPing, CapsuleServiceServer.Ping),
		unary(MethodCreateCapsule, CapsuleServiceServer.CreateCapsule),
		unary(MethodListSent, CapsuleServiceServer.ListSent),
		unary(MethodListReceived, CapsuleServiceServer.ListReceived),
		unary(MethodOpenCapsule, CapsuleServiceServer.OpenCapsule),
		unary(MethodMarkOpened, CapsuleServiceServer.MarkOpened),
		unary(MethodRequestFriend, CapsuleServiceServer.RequestFriend),
		unary(MethodAcceptFriend, CapsuleServiceServer.AcceptFriend),
		unary(MethodDeclineFriend, CapsuleServiceServer.DeclineFriend),
		unary(MethodBlockUser, CapsuleServiceServer.BlockUser),
		unary(MethodListFriends, CapsuleServiceServer.ListFriends),
		unary(MethodEligibleRecipients, CapsuleServiceServer.EligibleRecipients),
		unary(MethodSendInvite, CapsuleServiceServer.SendInvite),
		unary(MethodAcceptInvite, CapsuleServiceServer.AcceptInvite),
		unary(MethodListInvites, CapsuleServiceServer.ListInvites),
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterCapsuleServiceServer(s grpc.ServiceRegistrar, srv CapsuleServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
