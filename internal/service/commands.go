package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/execcoach/coach/internal/agent"
	"github.com/execcoach/coach/internal/model"
)

const (
	CommandStart    = "/start"
	CommandHelp     = "/help"
	CommandModes    = "/modes"
	CommandIdea     = "/idea"
	CommandPhase    = "/phase"
	CommandGoal     = "/goal"
	CommandGoals    = "/goals"
	CommandDone     = "/done"
	CommandAbandon  = "/abandon"
	CommandWin      = "/win"
	CommandStuck    = "/stuck"
	CommandProgress = "/progress"
	CommandPlan     = "/plan"
	CommandMetric   = "/metric"
	CommandTimezone = "/timezone"
	CommandCheckin  = "/checkin"
	CommandExport   = "/export"
	CommandTest     = "/test"
	CommandDebug    = "/debug"
)

// Diagnostic commands are answered but left out of the command menu.
var diagnosticCommands = []string{CommandTest, CommandDebug}

// planOptions are offered with every weekly planning session.
var planOptions = []model.ReplyOption{
	{Label: "📋 Set 3 must-do tasks", Data: CommandPlan + " tasks"},
	{Label: "📈 Review last week", Data: CommandPlan + " review"},
	{Label: "🎯 Set weekly goal", Data: CommandPlan + " goal"},
}

// Commands lists the bot commands with their menu descriptions.
var Commands = []struct {
	Name        string
	Description string
}{
	{CommandStart, "Start and see what I can do"},
	{CommandIdea, "Set your business idea"},
	{CommandPhase, "Set your phase: planning, validation, mvp, traction"},
	{CommandGoal, "Set a goal, optionally: by YYYY-MM-DD"},
	{CommandGoals, "List open goals"},
	{CommandDone, "Mark goal N as done"},
	{CommandAbandon, "Let go of goal N"},
	{CommandWin, "Log a win"},
	{CommandStuck, "Get unstuck right now"},
	{CommandProgress, "See streaks, goals and metrics"},
	{CommandPlan, "Weekly planning session"},
	{CommandMetric, "Track a number: /metric customers 12"},
	{CommandTimezone, "Set your timezone, e.g. Europe/Berlin"},
	{CommandCheckin, "Set the hour for daily check-ins"},
	{CommandExport, "Download your full history"},
	{agent.CommandIdeas, "Generate business ideas [theme]"},
	{agent.CommandResearch, "Market research on a topic"},
	{CommandModes, "See the agent modes"},
}

var errNoUser = fmt.Errorf("%w: user profile unavailable", ErrStoreUnavailable)

func (s *CoachService) dispatch(ctx context.Context, user *model.User, command, args string, variant model.AgentVariant, ev model.InboundEvent) (outcome, error) {
	static := func(text string) (outcome, error) {
		return outcome{text: text, source: model.SourceCommand, variant: variant}, nil
	}

	// Generated replies work without a user profile; everything else needs one.
	switch command {
	case agent.CommandIdeas:
		return s.ideas(ctx, user, args, ev.Timestamp), nil
	case agent.CommandResearch:
		return s.research(ctx, user, args, ev.Timestamp)
	case CommandHelp, CommandModes:
		return static(modesText)
	case CommandTest:
		return s.testGeneration(ctx, user), nil
	case CommandDebug:
		return static(s.debugInfo(ctx, user, ev.UserID))
	case "":
		return s.chat(ctx, user, ev.Text, ev.Timestamp), nil
	}

	if user == nil {
		if !isKnownCommand(command) {
			return s.chat(ctx, user, ev.Text, ev.Timestamp), nil
		}
		return outcome{}, errNoUser
	}

	switch command {
	case CommandStart:
		return static(welcomeText(user))

	case CommandIdea:
		if err := s.users.SetIdea(user, args); err != nil {
			return outcome{}, err
		}
		return static(fmt.Sprintf("💡 Business idea set: %s\n\nNow use /phase to set your current execution phase!", user.BusinessIdea))

	case CommandPhase:
		if args == "" {
			return outcome{}, invalidArgument("Usage: /phase [%s]", strings.Join(model.PhaseNames(), "|"))
		}
		if err := s.phases.SetPhase(user, args); err != nil {
			return outcome{}, err
		}
		return static(fmt.Sprintf("📊 Execution phase set to: %s\n\nGreat! Now I can give you phase-specific coaching. What are you working on today?", PhaseLabel(user.Phase)))

	case CommandGoal:
		description, deadline, err := ParseGoalArgs(args)
		if err != nil {
			return outcome{}, err
		}
		goal, err := s.goals.CreateGoal(user, description, deadline)
		if err != nil {
			return outcome{}, err
		}
		s.record(ctx, user, Entry{Description: "Set goal: " + goal.Description, Category: model.CategoryMessage, OccurredAt: ev.Timestamp})
		return static(fmt.Sprintf("🎯 Goal set: %s (due %s)\n\nWhat's the first small step toward this goal?", goal.Description, goal.Deadline.Format(time.DateOnly)))

	case CommandGoals:
		goals, err := s.goals.ListOpen(user, 0)
		if err != nil {
			return outcome{}, err
		}
		return static(FormatGoals(goals))

	case CommandDone:
		goal, err := s.goals.OpenAt(user, args)
		if err != nil {
			return outcome{}, err
		}
		goal, err = s.goals.MarkDone(user, goal.ID)
		if err != nil {
			return outcome{}, err
		}
		mood := model.MoodWin
		s.record(ctx, user, Entry{
			Description: "Completed goal: " + goal.Description,
			Category:    model.CategoryWin,
			Mood:        &mood,
			Tags:        []string{TagWin},
			OccurredAt:  ev.Timestamp,
		})
		return static(fmt.Sprintf("✅ Done: %s\n\nThat's a win! 🔥 Streak: %d days", goal.Description, EffectiveStreak(user, s.clock.Now())))

	case CommandAbandon:
		goal, err := s.goals.OpenAt(user, args)
		if err != nil {
			return outcome{}, err
		}
		goal, err = s.goals.MarkAbandoned(user, goal.ID)
		if err != nil {
			return outcome{}, err
		}
		return static(fmt.Sprintf("🗑 Let go of: %s\n\nDropping a goal on purpose is a decision, not a failure. What matters more right now?", goal.Description))

	case CommandWin:
		description := args
		if description == "" {
			description = "Achieved a win!"
		}
		tags, _ := TagMessage(description)
		mood := model.MoodWin
		out := s.generate(ctx, user, variant, args,
			fmt.Sprintf("I just achieved a win: %s. Please celebrate with me and help me build on this momentum!", description),
			&Entry{Description: description, Category: model.CategoryWin, Mood: &mood, Tags: append(tags, TagWin), OccurredAt: ev.Timestamp})
		out.text = "🎉 Win logged!\n\n" + out.text
		return out, nil

	case CommandStuck:
		description := "Reported feeling stuck"
		if args != "" {
			description = args
		}
		tags, _ := TagMessage(description)
		mood := model.MoodStuck
		prompt := "I'm feeling stuck and procrastinating."
		if args != "" {
			prompt += " " + args
		}
		out := s.generate(ctx, user, variant, args,
			prompt+" Please help me get unstuck with a specific 5-minute action I can take right now.",
			&Entry{Description: description, Category: model.CategoryStuck, Mood: &mood, Tags: append(tags, TagProcrastination), OccurredAt: ev.Timestamp})
		out.text = "🚨 Stuck alert activated!\n\n" + out.text
		return out, nil

	case CommandProgress:
		p, err := s.progress.Summary(user)
		if err != nil {
			return outcome{}, err
		}
		return static(FormatProgress(p, user.Location()))

	case CommandPlan:
		switch strings.ToLower(args) {
		case "tasks":
			return static("📋 List your 3 must-do tasks for this week, one per message. Turn the biggest one into a /goal.")
		case "review":
			p, err := s.progress.Summary(user)
			if err != nil {
				return outcome{}, err
			}
			return static(FormatProgress(p, user.Location()))
		case "goal":
			return static("🎯 Use /goal <description> by YYYY-MM-DD to set your weekly goal!")
		}
		out := s.generate(ctx, user, variant, args,
			"Let's run my weekly planning session. Review my recent progress and goals, then help me pick 3 must-do tasks for this week.",
			&Entry{Description: "Weekly planning session", Category: model.CategoryMessage, OccurredAt: ev.Timestamp})
		out.text = "📅 **Weekly planning session**\n\n" + out.text
		out.options = planOptions
		return out, nil

	case CommandMetric:
		name, value, err := ParseMetricArgs(args)
		if err != nil {
			return outcome{}, err
		}
		trend, err := s.metrics.Record(user, name, value)
		if err != nil {
			return outcome{}, err
		}
		s.record(ctx, user, Entry{
			Description: fmt.Sprintf("Tracked %s = %s", name, formatNumber(value)),
			Category:    model.CategoryMessage,
			OccurredAt:  ev.Timestamp,
		})
		return static(fmt.Sprintf("📈 %s: %s%s", trend.Name, formatNumber(trend.Latest), formatDelta(*trend)))

	case CommandTimezone:
		if err := s.users.SetTimezone(user, args); err != nil {
			return outcome{}, err
		}
		return static(fmt.Sprintf("🕒 Timezone set to %s. Check-ins and streak days now follow your local time.", user.Timezone))

	case CommandCheckin:
		hour, err := strconv.Atoi(strings.TrimSpace(args))
		if err != nil {
			return outcome{}, invalidArgument("Usage: /checkin <hour 0-23>, for example /checkin 9")
		}
		if err := s.users.SetCheckinHour(user, hour); err != nil {
			return outcome{}, err
		}
		return static(fmt.Sprintf("⏰ Daily check-ins will arrive after %02d:00 your time (%s).", user.CheckinHour, user.Timezone))

	case CommandExport:
		link, err := s.exports.Export(ctx, user)
		if errors.Is(err, ErrExportsDisabled) {
			return static("📦 Exports are not enabled on this deployment.")
		}
		if err != nil {
			return outcome{}, err
		}
		return static("📦 Your export is ready. The link stays valid for a day:\n" + link)
	}

	// Unknown commands are coached like plain text.
	return s.chat(ctx, user, ev.Text, ev.Timestamp), nil
}

func (s *CoachService) chat(ctx context.Context, user *model.User, text string, at time.Time) outcome {
	tags, mood := TagMessage(text)
	return s.generate(ctx, user, model.VariantExecutionCoach, text, text,
		&Entry{Description: text, Category: model.CategoryMessage, Mood: mood, Tags: tags, OccurredAt: at})
}

func (s *CoachService) ideas(ctx context.Context, user *model.User, theme string, at time.Time) outcome {
	description := "Generated business ideas"
	prompt := "Generate creative, viable business ideas for me."
	if theme != "" {
		description += ": " + theme
		prompt = "Generate creative, viable business ideas focused on: " + theme
	}

	out := s.generate(ctx, user, model.VariantBusinessIdeas, theme, prompt,
		&Entry{Description: description, Category: model.CategoryMessage, Tags: []string{"business_ideas"}, OccurredAt: at})
	out.text = fmt.Sprintf("💡 **Creative Business Ideas**\n\n%s\n\n💪 Use /research <topic> to analyze any of these ideas further!", out.text)
	return out
}

func (s *CoachService) research(ctx context.Context, user *model.User, topic string, at time.Time) (outcome, error) {
	if topic == "" {
		return outcome{}, invalidArgument("Usage: /research <topic>\n\nExamples:\n- /research food delivery apps\n- /research AI productivity tools")
	}

	out := s.generate(ctx, user, model.VariantMarketResearch, topic, "Conduct market research on: "+topic,
		&Entry{Description: "Conducted market research on: " + topic, Category: model.CategoryMessage, Tags: []string{"market_research"}, OccurredAt: at})
	out.text = fmt.Sprintf("📊 **Market Research: %s**\n\n%s\n\n💡 Want business ideas in this space? Try /ideas %s", topic, out.text, topic)
	return out, nil
}

func isKnownCommand(command string) bool {
	for _, c := range Commands {
		if c.Name == command {
			return true
		}
	}
	for _, c := range diagnosticCommands {
		if c == command {
			return true
		}
	}
	return command == CommandHelp
}

type providerNamer interface {
	Provider() string
}

const generationTestPrompt = "Say 'Hello! Text generation is working correctly.' and nothing else."

// testGeneration makes one real generation call and reports whether it
// succeeded or fell back.
func (s *CoachService) testGeneration(ctx context.Context, user *model.User) outcome {
	variant := model.VariantExecutionCoach
	bundle := s.contexts.Build(ctx, user, variant, generationTestPrompt)
	reply := s.responder.Respond(ctx, variant, bundle, generationTestPrompt)

	if reply.Source == model.SourceFallback {
		return outcome{
			text:    "❌ Text generation is unavailable, so replies use built-in fallbacks. Check GEMINI_API_KEY and the logs.",
			source:  model.SourceCommand,
			variant: variant,
		}
	}
	return outcome{
		text:    "✅ Text generation test result:\n" + strings.TrimSpace(reply.Text),
		source:  reply.Source,
		variant: variant,
	}
}

// debugInfo shows the generation provider and the context the coach has on
// the user.
func (s *CoachService) debugInfo(ctx context.Context, user *model.User, externalID string) string {
	provider := "unknown"
	if p, ok := s.responder.(providerNamer); ok {
		provider = p.Provider()
	}

	var b strings.Builder
	b.WriteString("🔍 **Debug information**\n\n")
	fmt.Fprintf(&b, "**Generation**\n• Provider: %s\n\n", provider)

	b.WriteString("**Profile**\n")
	fmt.Fprintf(&b, "• User ID: %s\n", externalID)
	if user == nil {
		b.WriteString("• Stored profile: ❌ unavailable\n")
	} else {
		bundle := s.contexts.Build(ctx, user, model.VariantExecutionCoach, "")
		fmt.Fprintf(&b, "• Name: %s\n", user.DisplayName())
		fmt.Fprintf(&b, "• Streak: %d days\n", EffectiveStreak(user, s.clock.Now()))
		fmt.Fprintf(&b, "• Phase: %s\n", PhaseLabel(user.Phase))
		fmt.Fprintf(&b, "• Total activities: %d\n", user.TotalActivities)
		fmt.Fprintf(&b, "• Recent activities in context: %d\n", len(bundle.Activities))
		fmt.Fprintf(&b, "• Open goals in context: %d\n", len(bundle.Goals))
		fmt.Fprintf(&b, "• Timezone: %s, check-ins after %02d:00\n", user.Location(), user.CheckinHour)
		if bundle.Degraded {
			b.WriteString("• Context: ⚠️ degraded\n")
		}
	}

	b.WriteString("\nUse /test to check text generation.")
	return b.String()
}

// FormatGoals renders open goals numbered the way /done and /abandon address them.
func FormatGoals(goals []model.GoalView) string {
	if len(goals) == 0 {
		return "🎯 No open goals. Set one with /goal <description> [by YYYY-MM-DD]"
	}

	var b strings.Builder
	b.WriteString("🎯 **Open goals**\n\n")
	for i, g := range goals {
		mark := ""
		if g.Overdue {
			mark = " ⚠️ overdue"
		}
		fmt.Fprintf(&b, "%d. %s (due %s)%s\n", i+1, g.Description, g.Deadline.Format(time.DateOnly), mark)
	}
	b.WriteString("\nClose one with /done N or /abandon N.")
	return b.String()
}

func checkinText(kind model.CheckinKind) (prompt, header, footer string) {
	if kind == model.CheckinWeekly {
		return "It's the start of a new week. Help me review last week in two sentences and suggest three must-do tasks for this week.",
			"📅 **Weekly planning time!**\n\n",
			"\n\nUse /plan for a full planning session. 🚀"
	}
	return "It's my daily check-in. Ask me for today's 5-minute action, referencing my streak, phase and goals.",
		"🌅 **Daily check-in**\n\n",
		"\n\nReply with what you did, or use /stuck if you're blocked. 💪"
}

func welcomeText(user *model.User) string {
	return fmt.Sprintf(`🚀 Welcome to your Execution Coach, %s!

I have **3 modes** to help you succeed as a solo entrepreneur:

**🎯 Execution Coach** (default)
- Daily accountability and check-ins
- Breaking overwhelming tasks into 5-minute actions
- Celebrating wins and building streaks

**💡 Business Ideas**: /ideas [theme]

**📊 Market Research**: /research <topic>

**Quick setup**
- /idea: set your current business idea
- /phase: planning, validation, mvp or traction
- /goal: set a goal with a deadline
- /timezone and /checkin: when I should check in

**Daily**
- /win, /stuck, /progress, /plan, /metric

Let's start! What's your current business idea or project?`, user.DisplayName())
}

const modesText = `🤖 **Available agent modes**

**🎯 Execution Coach** (default)
Helps with procrastination, goal-setting and daily accountability.
- Just send any message for coaching
- /stuck: get unstuck from procrastination
- /win: log victories and build momentum
- /progress: see your streaks, goals and metrics

**💡 Business Ideas Generator**
- /ideas: generate 3-5 creative business ideas
- /ideas <theme>: ideas focused on a theme, e.g. /ideas AI tools

**📊 Market Researcher**
- /research <topic>: market analysis, e.g. /research fitness wearables

**📋 Planning and goals**
- /plan: weekly planning session
- /goal <description> [by YYYY-MM-DD], /goals, /done N, /abandon N
- /idea <description>, /phase <phase>, /metric <name> <value>
- /timezone <zone>, /checkin <hour>, /export

All modes remember your history, goals and patterns.`
