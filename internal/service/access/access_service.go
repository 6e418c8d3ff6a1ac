package access

import (
	"context"

	"github.com/Domenick1991/flightsurety/internal/domain"
	"github.com/Domenick1991/flightsurety/internal/repository"
)

type AccessUseCase interface {
	Operational(ctx context.Context) (bool, error)
	SetOperational(ctx context.Context, caller string, on bool) error
	AuthorizeCaller(ctx context.Context, caller, id string) error
	IsAuthorized(ctx context.Context, id string) (bool, error)
}

// Guard is the precondition check every mutating ledger operation runs
// before touching the store: the global operational flag must be on and the
// writing identity must have been authorized by the owner.
type Guard interface {
	RequireOperational(ctx context.Context) error
	RequireAuthorized(ctx context.Context, caller string) error
}

type AccessService struct {
	state repository.StateRepository
	owner string
}

func NewAccessService(state repository.StateRepository, owner string) *AccessService {
	return &AccessService{state: state, owner: owner}
}

func (s *AccessService) Operational(ctx context.Context) (bool, error) {
	return s.state.Operational(ctx)
}

// SetOperational toggles the global operational flag. Owner only. It is not
// itself gated on the flag, otherwise a paused ledger could never resume.
func (s *AccessService) SetOperational(ctx context.Context, caller string, on bool) error {
	if caller != s.owner {
		return domain.ErrUnauthorized
	}
	return s.state.SetOperational(ctx, on)
}

func (s *AccessService) AuthorizeCaller(ctx context.Context, caller, id string) error {
	if err := s.RequireOperational(ctx); err != nil {
		return err
	}
	if caller != s.owner {
		return domain.ErrUnauthorized
	}
	return s.state.AuthorizeCaller(ctx, id)
}

func (s *AccessService) IsAuthorized(ctx context.Context, id string) (bool, error) {
	return s.state.IsAuthorized(ctx, id)
}

func (s *AccessService) RequireOperational(ctx context.Context) error {
	operational, err := s.state.Operational(ctx)
	if err != nil {
		return err
	}
	if !operational {
		return domain.ErrNotOperational
	}
	return nil
}

func (s *AccessService) RequireAuthorized(ctx context.Context, caller string) error {
	authorized, err := s.state.IsAuthorized(ctx, caller)
	if err != nil {
		return err
	}
	if !authorized {
		return domain.ErrUnauthorized
	}
	return nil
}

var _ AccessUseCase = (*AccessService)(nil)
var _ Guard = (*AccessService)(nil)
