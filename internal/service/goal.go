package service

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/execcoach/coach/internal/model"
	"github.com/execcoach/coach/internal/repository"
	"github.com/execcoach/coach/internal/validation"
)

// DefaultGoalDays is the deadline given to goals created without one.
const DefaultGoalDays = 7

type GoalService struct {
	goalRepo repository.GoalRepository
	clock    Clock
}

func NewGoalService(goalRepo repository.GoalRepository, clock Clock) *GoalService {
	return &GoalService{
		goalRepo: goalRepo,
		clock:    clock,
	}
}

// CreateGoal adds an open goal. Past deadlines are accepted and show as overdue.
func (s *GoalService) CreateGoal(user *model.User, description string, deadline time.Time) (*model.Goal, error) {
	description = strings.TrimSpace(description)

	err := validation.ValidateGoal(description)
	if err != nil {
		return nil, invalidArgument("%s. Usage: /goal <description> [by YYYY-MM-DD]", err)
	}

	now := s.clock.Now().UTC()
	if deadline.IsZero() {
		deadline = civilDay(now, user.Location()).AddDate(0, 0, DefaultGoalDays)
	}

	goal := &model.Goal{
		ID:          repository.NewID(),
		UserID:      user.ID,
		Description: description,
		Deadline:    civilDay(deadline, time.UTC),
		Status:      model.GoalStatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.goalRepo.Create(goal)
	if err != nil {
		return nil, storeError("create goal", err)
	}

	return goal, nil
}

// ListOpen returns open goals in insertion order with overdue flags as of now.
func (s *GoalService) ListOpen(user *model.User, limit int) ([]model.GoalView, error) {
	goals, err := s.goalRepo.Open(user.ID, limit)
	if err != nil {
		return nil, storeError("list goals", err)
	}
	return s.views(user, goals), nil
}

func (s *GoalService) MarkDone(user *model.User, goalID string) (*model.Goal, error) {
	return s.close(user, goalID, model.GoalStatusDone)
}

func (s *GoalService) MarkAbandoned(user *model.User, goalID string) (*model.Goal, error) {
	return s.close(user, goalID, model.GoalStatusAbandoned)
}

// OpenAt resolves the 1-based position shown by /goals.
func (s *GoalService) OpenAt(user *model.User, arg string) (*model.Goal, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 1 {
		return nil, invalidArgument("Give the goal number from /goals, for example /done 1")
	}

	goals, err := s.goalRepo.Open(user.ID, 0)
	if err != nil {
		return nil, storeError("list goals", err)
	}
	if n > len(goals) {
		return nil, invalidArgument("You have %d open goals. Use /goals to see them", len(goals))
	}

	return &goals[n-1], nil
}

func (s *GoalService) close(user *model.User, goalID string, status model.GoalStatus) (*model.Goal, error) {
	now := s.clock.Now().UTC()

	err := s.goalRepo.Close(user.ID, goalID, status, now)
	if errors.Is(err, repository.ErrGoalNotFound) {
		return nil, invalidArgument("I can't find that goal. Use /goals to see your open goals")
	}
	if errors.Is(err, repository.ErrGoalNotOpen) {
		return nil, invalidArgument("That goal is already closed")
	}
	if err != nil {
		return nil, storeError("close goal", err)
	}

	goal, err := s.goalRepo.ByID(user.ID, goalID)
	if err != nil {
		return nil, storeError("load goal", err)
	}
	return goal, nil
}

func (s *GoalService) views(user *model.User, goals []model.Goal) []model.GoalView {
	now := s.clock.Now()
	loc := user.Location()

	views := make([]model.GoalView, len(goals))
	for i := range goals {
		views[i] = model.GoalView{Goal: goals[i], Overdue: goals[i].IsOverdue(now, loc)}
	}
	return views
}

// ParseGoalArgs splits "<description> [by YYYY-MM-DD]". A missing deadline is zero.
func ParseGoalArgs(args string) (description string, deadline time.Time, err error) {
	args = strings.TrimSpace(args)
	if args == "" {
		return "", time.Time{}, invalidArgument("Usage: /goal <description> [by YYYY-MM-DD]")
	}

	i := strings.LastIndex(strings.ToLower(args), " by ")
	if i < 0 {
		return args, time.Time{}, nil
	}

	date := strings.TrimSpace(args[i+len(" by "):])
	deadline, err = time.Parse(time.DateOnly, date)
	if err != nil {
		// "by" was part of the description.
		return args, time.Time{}, nil
	}

	return strings.TrimSpace(args[:i]), deadline, nil
}
