package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/execcoach/coach/internal/agent"
	"github.com/execcoach/coach/internal/model"
	"github.com/execcoach/coach/internal/repository"
	"github.com/execcoach/coach/internal/service/generation"
)

// Responder produces reply text for a variant. It always returns text.
type Responder interface {
	Respond(ctx context.Context, variant model.AgentVariant, bundle *model.ContextBundle, userText string) generation.Reply
}

// CoachService runs every inbound event and check-in through the pipeline
// ledger -> streak/phase -> router -> context -> generation -> conversation log.
type CoachService struct {
	users            *UserService
	ledger           *LedgerService
	phases           *PhaseService
	goals            *GoalService
	metrics          *MetricService
	progress         *ProgressService
	contexts         *ContextBuilder
	exports          *ExportService
	conversationRepo repository.ConversationRepository
	responder        Responder
	locks            *UserLocks
	clock            Clock
}

type CoachDeps struct {
	Users            *UserService
	Ledger           *LedgerService
	Phases           *PhaseService
	Goals            *GoalService
	Metrics          *MetricService
	Progress         *ProgressService
	Contexts         *ContextBuilder
	Exports          *ExportService
	ConversationRepo repository.ConversationRepository
	Responder        Responder
	Locks            *UserLocks
	Clock            Clock
}

func NewCoachService(deps CoachDeps) *CoachService {
	locks := deps.Locks
	if locks == nil {
		locks = NewUserLocks()
	}
	return &CoachService{
		users:            deps.Users,
		ledger:           deps.Ledger,
		phases:           deps.Phases,
		goals:            deps.Goals,
		metrics:          deps.Metrics,
		progress:         deps.Progress,
		contexts:         deps.Contexts,
		exports:          deps.Exports,
		conversationRepo: deps.ConversationRepo,
		responder:        deps.Responder,
		locks:            locks,
		clock:            deps.Clock,
	}
}

// outcome is one reply before it is logged and delivered.
type outcome struct {
	text    string
	source  string
	variant model.AgentVariant
	options []model.ReplyOption
}

// Handle answers one inbound event. It never fails: store and generation errors
// end in a degraded or canned reply, argument errors in a clarification.
func (s *CoachService) Handle(ctx context.Context, ev model.InboundEvent) model.OutboundReply {
	unlock := s.locks.Lock(ev.UserID)
	defer unlock()

	start := s.clock.Now()
	if ev.Timestamp.IsZero() {
		ev.Timestamp = start
	}

	command, args := commandOf(ev)
	variant := agent.Route(command, args)

	user, err := s.users.GetOrCreate(ev)
	if err != nil {
		slog.ErrorContext(ctx, "user unavailable, continuing without context",
			"external_id", ev.UserID,
			"error", err,
		)
	}

	out, err := s.dispatch(ctx, user, command, args, variant, ev)
	if err != nil {
		out = s.failure(ctx, ev, variant, err)
	}

	if user != nil {
		s.logTurns(ctx, user, ev.Text, out)
		s.touch(ctx, user, start)
	}

	slog.InfoContext(ctx, "event handled",
		"external_id", ev.UserID,
		"command", command,
		"variant", out.variant,
		"source", out.source,
	)

	return model.OutboundReply{UserID: ev.UserID, Text: out.text, Options: out.options}
}

// CheckIn composes the system check-in for the user. Nothing is stored until
// RecordCheckIn confirms the message was delivered.
func (s *CoachService) CheckIn(ctx context.Context, user *model.User, kind model.CheckinKind) (model.OutboundReply, error) {
	unlock := s.locks.Lock(user.ExternalID)
	defer unlock()

	prompt, header, footer := checkinText(kind)

	variant := model.VariantExecutionCoach
	bundle := s.contexts.Build(ctx, user, variant, prompt)
	reply := s.responder.Respond(ctx, variant, bundle, prompt)

	return model.OutboundReply{UserID: user.ExternalID, Text: header + reply.Text + footer}, nil
}

// RecordCheckIn ledgers a delivered check-in and logs it as an agent turn.
func (s *CoachService) RecordCheckIn(ctx context.Context, user *model.User, kind model.CheckinKind, reply model.OutboundReply) error {
	unlock := s.locks.Lock(user.ExternalID)
	defer unlock()

	updated, _, err := s.ledger.Append(user.ID, Entry{
		Description: string(kind) + " check-in",
		Category:    model.CategorySystemCheckin,
	})
	if err != nil {
		return err
	}

	s.appendTurn(ctx, updated, model.RoleAgent, model.VariantExecutionCoach, reply.Text, model.SourceCheckin)
	return nil
}

// generate records the entry, builds the variant's context and asks the
// responder. A ledger failure degrades the reply instead of failing it.
func (s *CoachService) generate(ctx context.Context, user *model.User, variant model.AgentVariant, request, prompt string, entry *Entry) outcome {
	if user != nil && entry != nil {
		updated, _, err := s.ledger.Append(user.ID, *entry)
		if err != nil {
			s.logError(ctx, "ledger append failed", user.ID, err)
		} else {
			*user = *updated
		}
	}

	bundle := s.contexts.Build(ctx, user, variant, request)
	reply := s.responder.Respond(ctx, variant, bundle, prompt)

	return outcome{text: reply.Text, source: reply.Source, variant: variant}
}

func (s *CoachService) record(ctx context.Context, user *model.User, entry Entry) {
	updated, _, err := s.ledger.Append(user.ID, entry)
	if err != nil {
		s.logError(ctx, "ledger append failed", user.ID, err)
		return
	}
	*user = *updated
}

func (s *CoachService) failure(ctx context.Context, ev model.InboundEvent, variant model.AgentVariant, err error) outcome {
	if text, ok := Clarification(err); ok {
		return outcome{text: "🤔 " + text, source: model.SourceCommand, variant: variant}
	}

	s.logError(ctx, "event failed", ev.UserID, err)

	text := "⚠️ I couldn't save that just now. Please try again in a minute."
	if errors.Is(err, ErrInvariantViolation) {
		text = "⚠️ Something went wrong on my side. I've logged it and will look into it."
	}
	return outcome{text: text, source: model.SourceCommand, variant: variant}
}

func (s *CoachService) logError(ctx context.Context, msg, userID string, err error) {
	if errors.Is(err, ErrInvariantViolation) {
		slog.ErrorContext(ctx, msg, "user_id", userID, "error", err, "invariant", true)
		return
	}
	slog.ErrorContext(ctx, msg, "user_id", userID, "error", err)
}

// touch keeps users who only read or change settings inside the check-in
// window. Ledger writes and first contact already set last_active_at.
func (s *CoachService) touch(ctx context.Context, user *model.User, since time.Time) {
	if !user.LastActiveAt.Before(since) {
		return
	}
	if err := s.users.Touch(user); err != nil {
		slog.WarnContext(ctx, "last active update failed", "user_id", user.ID, "error", err)
	}
}

func (s *CoachService) logTurns(ctx context.Context, user *model.User, text string, out outcome) {
	s.appendTurn(ctx, user, model.RoleUser, out.variant, text, model.SourceUser)
	s.appendTurn(ctx, user, model.RoleAgent, out.variant, out.text, out.source)
}

func (s *CoachService) appendTurn(ctx context.Context, user *model.User, role model.Role, variant model.AgentVariant, text, source string) {
	err := s.conversationRepo.Append(&model.ConversationTurn{
		ID:        repository.NewID(),
		UserID:    user.ID,
		Role:      role,
		Variant:   variant,
		Text:      text,
		Source:    source,
		CreatedAt: s.clock.Now().UTC(),
	})
	if err != nil {
		slog.WarnContext(ctx, "conversation log append failed", "user_id", user.ID, "role", role, "error", err)
	}
}

// commandOf prefers the transport's parsed command token over the text.
func commandOf(ev model.InboundEvent) (command, args string) {
	if ev.CommandToken != "" {
		command = agent.NormalizeCommand(ev.CommandToken)
		_, args = agent.SplitCommand(ev.Text)
		if !strings.HasPrefix(strings.TrimSpace(ev.Text), "/") {
			args = strings.TrimSpace(ev.Text)
		}
		return command, args
	}
	return agent.SplitCommand(ev.Text)
}
