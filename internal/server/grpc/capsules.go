package grpc

import (
	"context"

	"github.com/dmitrijs2005/timecapsule/internal/api"
	"github.com/dmitrijs2005/timecapsule/internal/cryptox"
	"github.com/dmitrijs2005/timecapsule/internal/server/services"
)

func (s *GRPCServer) CreateCapsule(ctx context.Context, req *api.CreateCapsuleRequest) (*api.CreateCapsuleResponse, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	c, err := s.capsules.Create(ctx, uid, services.CreateInput{
		Headline:   req.Headline,
		UnlockAt:   req.UnlockAt,
		Recipients: req.Recipients,
		Surprise:   req.Surprise,
		Sealed:     cryptox.Sealed{Ciphertext: req.Ciphertext, IV: req.IV, Salt: req.Salt},
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.CreateCapsuleResponse{Capsule: toCapsule(c)}, nil
}

func (s *GRPCServer) ListSent(ctx context.Context, _ *api.ListCapsulesRequest) (*api.ListCapsulesResponse, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	list, err := s.capsules.ListSent(ctx, uid)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.ListCapsulesResponse{Capsules: toCapsules(list), ServerTime: s.now().UTC()}, nil
}

func (s *GRPCServer) ListReceived(ctx context.Context, _ *api.ListCapsulesRequest) (*api.ListCapsulesResponse, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	list, err := s.capsules.ListReceived(ctx, uid)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.ListCapsulesResponse{Capsules: toCapsules(list), ServerTime: s.now().UTC()}, nil
}

func (s *GRPCServer) OpenCapsule(ctx context.Context, req *api.CapsuleRequest) (*api.OpenCapsuleResponse, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	res, err := s.capsules.Open(ctx, uid, req.CapsuleID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "capsule released", "capsule_id", req.CapsuleID, "user_id", uid)
	return &api.OpenCapsuleResponse{
		Capsule:    toCapsule(res.Capsule),
		Ciphertext: res.Capsule.Sealed.Ciphertext,
		IV:         res.Capsule.Sealed.IV,
		Salt:       res.Capsule.Sealed.Salt,
		Context:    res.Context,
	}, nil
}

func (s *GRPCServer) MarkOpened(ctx context.Context, req *api.CapsuleRequest) (*api.MarkOpenedResponse, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	if err := s.capsules.MarkOpened(ctx, uid, req.CapsuleID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.MarkOpenedResponse{}, nil
}
