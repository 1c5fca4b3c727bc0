package service

import (
	"strings"

	"github.com/execcoach/coach/internal/model"
	"github.com/execcoach/coach/internal/repository"
)

type PhaseService struct {
	userRepo repository.UserRepository
	clock    Clock
}

func NewPhaseService(userRepo repository.UserRepository, clock Clock) *PhaseService {
	return &PhaseService{
		userRepo: userRepo,
		clock:    clock,
	}
}

// SetPhase moves the user to the named phase. Any transition is allowed;
// re-declaring the current phase keeps its start date.
func (s *PhaseService) SetPhase(user *model.User, name string) error {
	phase, ok := model.ParsePhase(name)
	if !ok {
		return invalidArgument("Valid phases: %s. Usage: /phase <phase>", strings.Join(model.PhaseNames(), ", "))
	}

	if phase == user.Phase {
		return nil
	}

	now := s.clock.Now().UTC()
	err := s.userRepo.SetPhase(user.ID, phase, now)
	if err != nil {
		return storeError("set phase", err)
	}

	user.Phase = phase
	user.PhaseChangedAt = now
	return nil
}
