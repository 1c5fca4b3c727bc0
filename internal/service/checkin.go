package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/execcoach/coach/internal/model"
	"github.com/execcoach/coach/internal/repository"
)

// Sender delivers a system-initiated message to a user.
type Sender interface {
	Send(ctx context.Context, reply model.OutboundReply) error
}

// CheckinHandler turns a due check-in into the message to deliver and records
// it once delivered.
type CheckinHandler interface {
	CheckIn(ctx context.Context, user *model.User, kind model.CheckinKind) (model.OutboundReply, error)
	RecordCheckIn(ctx context.Context, user *model.User, kind model.CheckinKind, reply model.OutboundReply) error
}

type SchedulerConfig struct {
	ScanEvery      time.Duration
	DailyInterval  time.Duration
	WeeklyInterval time.Duration
	WeeklyDay      time.Weekday
	WeeklyHour     int
	ActiveWindow   time.Duration
	Concurrency    int
}

func (c SchedulerConfig) withDefaults() SchedulerConfig {
	if c.ScanEvery <= 0 {
		c.ScanEvery = 5 * time.Minute
	}
	if c.DailyInterval <= 0 {
		c.DailyInterval = 20 * time.Hour
	}
	if c.WeeklyInterval <= 0 {
		c.WeeklyInterval = 144 * time.Hour
	}
	if c.ActiveWindow <= 0 {
		c.ActiveWindow = 7 * 24 * time.Hour
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	return c
}

// CheckinScheduler periodically scans recently active users and sends the
// daily and weekly check-ins that are due. Each (user, kind, period) is sent
// at most once.
type CheckinScheduler struct {
	userRepo    repository.UserRepository
	checkinRepo repository.CheckinRepository
	handler     CheckinHandler
	sender      Sender
	clock       Clock
	cfg         SchedulerConfig
}

func NewCheckinScheduler(
	userRepo repository.UserRepository,
	checkinRepo repository.CheckinRepository,
	handler CheckinHandler,
	sender Sender,
	clock Clock,
	cfg SchedulerConfig,
) *CheckinScheduler {
	return &CheckinScheduler{
		userRepo:    userRepo,
		checkinRepo: checkinRepo,
		handler:     handler,
		sender:      sender,
		clock:       clock,
		cfg:         cfg.withDefaults(),
	}
}

// Run scans on every tick until ctx is cancelled.
func (s *CheckinScheduler) Run(ctx context.Context) error {
	slog.Info("check-in scheduler started", "every", s.cfg.ScanEvery, "concurrency", s.cfg.Concurrency)

	ticker := time.NewTicker(s.cfg.ScanEvery)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx, s.clock.Now()); err != nil && ctx.Err() == nil {
			slog.Error("check-in scan failed", "error", err)
		}

		select {
		case <-ctx.Done():
			slog.Info("check-in scheduler stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce performs one scan as of now and returns how many check-ins were sent.
// Per-user failures are logged and never abort the scan.
func (s *CheckinScheduler) RunOnce(ctx context.Context, now time.Time) (int, error) {
	users, err := s.userRepo.ActiveSince(now.Add(-s.cfg.ActiveWindow))
	if err != nil {
		return 0, storeError("active users", err)
	}

	var sent atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Concurrency)

	for _, user := range users {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			for _, kind := range []model.CheckinKind{model.CheckinDaily, model.CheckinWeekly} {
				ok, err := s.process(ctx, user, kind, now)
				if err != nil {
					slog.Error("check-in failed",
						"user_id", user.ID,
						"kind", kind,
						"error", err,
					)
					continue
				}
				if ok {
					sent.Add(1)
				}
			}
			return nil
		})
	}

	_ = g.Wait()
	return int(sent.Load()), ctx.Err()
}

func (s *CheckinScheduler) process(ctx context.Context, user *model.User, kind model.CheckinKind, now time.Time) (bool, error) {
	period, due, err := s.due(user, kind, now)
	if err != nil || !due {
		return false, err
	}

	err = s.claim(user, kind, period, now)
	if errors.Is(err, ErrDuplicateCheckIn) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	reply, err := s.handler.CheckIn(ctx, user, kind)
	if err == nil {
		err = s.sender.Send(ctx, reply)
	}
	if err != nil {
		if releaseErr := s.checkinRepo.Release(user.ID, kind, period); releaseErr != nil {
			slog.Error("check-in claim release failed", "user_id", user.ID, "kind", kind, "period", period, "error", releaseErr)
		}
		return false, fmt.Errorf("send %s check-in: %w", kind, err)
	}

	// Delivered: the claim stays even if recording fails.
	if err := s.handler.RecordCheckIn(ctx, user, kind, reply); err != nil {
		slog.Error("check-in record failed", "user_id", user.ID, "kind", kind, "error", err)
	}

	slog.Info("check-in sent", "user_id", user.ID, "kind", kind, "period", period)
	return true, nil
}

// due reports whether a check-in of kind is due for the user and its period key.
func (s *CheckinScheduler) due(user *model.User, kind model.CheckinKind, now time.Time) (string, bool, error) {
	local := now.In(user.Location())

	var period string
	var interval time.Duration
	switch kind {
	case model.CheckinDaily:
		if local.Hour() < user.CheckinHour {
			return "", false, nil
		}
		period = local.Format(time.DateOnly)
		interval = s.cfg.DailyInterval
	case model.CheckinWeekly:
		if local.Weekday() != s.cfg.WeeklyDay || local.Hour() < s.cfg.WeeklyHour {
			return "", false, nil
		}
		year, week := local.ISOWeek()
		period = fmt.Sprintf("%04d-W%02d", year, week)
		interval = s.cfg.WeeklyInterval
	default:
		return "", false, fmt.Errorf("%w: unknown check-in kind %q", ErrInvariantViolation, kind)
	}

	last, err := s.checkinRepo.Last(user.ID, kind)
	if err != nil {
		return "", false, storeError("last check-in", err)
	}
	if last != nil && now.Sub(last.CreatedAt) < interval {
		return "", false, nil
	}

	return period, true, nil
}

func (s *CheckinScheduler) claim(user *model.User, kind model.CheckinKind, period string, now time.Time) error {
	err := s.checkinRepo.Claim(&model.CheckinClaim{
		UserID:    user.ID,
		Kind:      kind,
		Period:    period,
		CreatedAt: now.UTC(),
	})
	if errors.Is(err, repository.ErrClaimExists) {
		return ErrDuplicateCheckIn
	}
	if err != nil {
		return storeError("claim check-in", err)
	}
	return nil
}
