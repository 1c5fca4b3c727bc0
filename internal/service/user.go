package service

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/execcoach/coach/internal/model"
	"github.com/execcoach/coach/internal/repository"
	"github.com/execcoach/coach/internal/validation"
)

type UserService struct {
	userRepo repository.UserRepository
	clock    Clock
}

func NewUserService(userRepo repository.UserRepository, clock Clock) *UserService {
	return &UserService{
		userRepo: userRepo,
		clock:    clock,
	}
}

// GetOrCreate loads the user behind an inbound event, creating the profile on
// first contact.
func (s *UserService) GetOrCreate(ev model.InboundEvent) (*model.User, error) {
	user, err := s.userRepo.ByExternalID(ev.UserID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, storeError("load user", err)
	}

	now := s.clock.Now().UTC()
	user = &model.User{
		ID:             repository.NewID(),
		ExternalID:     ev.UserID,
		Username:       ev.Username,
		FirstName:      ev.FirstName,
		Phase:          model.PhasePlanning,
		PhaseChangedAt: now,
		Timezone:       model.DefaultTimezone,
		CheckinHour:    model.DefaultCheckinHour,
		CreatedAt:      now,
		LastActiveAt:   now,
	}

	err = s.userRepo.Create(user)
	if errors.Is(err, repository.ErrDuplicateUser) {
		// Lost a race with a concurrent first message.
		user, err = s.userRepo.ByExternalID(ev.UserID)
		if err != nil {
			return nil, storeError("load user", err)
		}
		return user, nil
	}
	if err != nil {
		return nil, storeError("create user", err)
	}

	slog.Info("user created", "user_id", user.ID, "external_id", user.ExternalID)
	return user, nil
}

func (s *UserService) ByExternalID(externalID string) (*model.User, error) {
	user, err := s.userRepo.ByExternalID(externalID)
	if err != nil {
		return nil, storeError("load user", err)
	}
	return user, nil
}

func (s *UserService) SetIdea(user *model.User, idea string) error {
	idea = strings.TrimSpace(idea)

	err := validation.ValidateIdea(idea)
	if err != nil {
		return invalidArgument("%s. Usage: /idea <your business idea>", err)
	}

	err = s.userRepo.SetBusinessIdea(user.ID, idea)
	if err != nil {
		return storeError("set idea", err)
	}

	user.BusinessIdea = idea
	return nil
}

func (s *UserService) SetTimezone(user *model.User, name string) error {
	name = strings.TrimSpace(name)

	err := validation.ValidateTimezone(name)
	if err != nil {
		return invalidArgument("%s", err)
	}

	err = s.userRepo.SetTimezone(user.ID, name)
	if err != nil {
		return storeError("set timezone", err)
	}

	user.Timezone = name
	return nil
}

func (s *UserService) SetCheckinHour(user *model.User, hour int) error {
	err := validation.ValidateHour(hour)
	if err != nil {
		return invalidArgument("%s. Usage: /checkin <hour 0-23>", err)
	}

	err = s.userRepo.SetCheckinHour(user.ID, hour)
	if err != nil {
		return storeError("set check-in hour", err)
	}

	user.CheckinHour = hour
	return nil
}

// Touch marks the user as recently active without logging an activity.
func (s *UserService) Touch(user *model.User) error {
	now := s.clock.Now().UTC()
	err := s.userRepo.Touch(user.ID, now)
	if err != nil {
		return storeError("touch user", err)
	}
	user.LastActiveAt = now
	return nil
}
