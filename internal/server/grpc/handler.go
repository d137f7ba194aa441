package grpc

import (
	"context"

	"github.com/dmitrijs2005/timecapsule/internal/api"
)

func (s *GRPCServer) Register(ctx context.Context, req *api.RegisterRequest) (*api.RegisterResponse, error) {

	s.logger.Info(ctx, "Registration request")

	result, err := s.users.Register(ctx, req.Email, req.DisplayName, req.Salt, req.Verifier)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Registered", "user_id", result.ID)
	return &api.RegisterResponse{UserID: result.ID}, nil
}

func (s *GRPCServer) GetSalt(ctx context.Context, req *api.GetSaltRequest) (*api.GetSaltResponse, error) {
	result, err := s.users.GetSalt(ctx, req.Email)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.GetSaltResponse{Salt: result}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *api.LoginRequest) (*api.LoginResponse, error) {
	tokens, err := s.users.Login(ctx, req.Email, req.Verifier)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &api.LoginResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		User:         toUser(u),
	}, nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *api.RefreshTokenRequest) (*api.RefreshTokenResponse, error) {
	tokens, err := s.users.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.RefreshTokenResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *api.PingRequest) (*api.PingResponse, error) {
	return &api.PingResponse{Status: "OK", ServerTime: s.now().UTC()}, nil
}
