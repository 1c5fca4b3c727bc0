package transport

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/execcoach/coach/internal/model"
)

// replyTimeout bounds a reply sent after polling has stopped.
const replyTimeout = 30 * time.Second

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Telegram receives messages by long polling and delivers replies as plain text.
type Telegram struct {
	bot       *tgbotapi.BotAPI
	api       telegramAPI
	formatter *Formatter
}

func NewTelegram(token string) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}

	slog.Info("telegram connected", "bot", bot.Self.UserName)
	return &Telegram{
		bot:       bot,
		api:       bot,
		formatter: NewFormatter(),
	}, nil
}

// BotCommand is one entry of the command menu.
type BotCommand struct {
	Name        string
	Description string
}

// SetCommands publishes the command menu shown by Telegram clients.
func (t *Telegram) SetCommands(commands []BotCommand) error {
	list := make([]tgbotapi.BotCommand, 0, len(commands))
	for _, c := range commands {
		list = append(list, tgbotapi.BotCommand{
			Command:     strings.TrimPrefix(c.Name, "/"),
			Description: c.Description,
		})
	}

	_, err := t.api.Request(tgbotapi.NewSetMyCommands(list...))
	if err != nil {
		return fmt.Errorf("failed to set telegram commands: %w", err)
	}
	return nil
}

func (t *Telegram) Send(ctx context.Context, reply model.OutboundReply) error {
	channel, id := SplitAddress(reply.UserID)
	if channel != ChannelTelegram {
		return fmt.Errorf("%w: %q is not a telegram user", ErrUnknownChannel, reply.UserID)
	}

	chatID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", id, err)
	}

	chunks := t.formatter.Messages(reply.Text)
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg := tgbotapi.NewMessage(chatID, chunk)
		msg.DisableWebPagePreview = true
		if i == len(chunks)-1 && len(reply.Options) > 0 {
			msg.ReplyMarkup = inlineKeyboard(reply.Options)
		}

		_, err := t.api.Send(msg)
		if err != nil {
			return fmt.Errorf("failed to send telegram message: %w", err)
		}
	}

	return nil
}

// inlineKeyboard renders reply options one button per row.
func inlineKeyboard(options []model.ReplyOption) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(options))
	for _, opt := range options {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(opt.Label, opt.Data)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// Poll feeds incoming messages and button presses to the dispatcher until ctx
// is cancelled. Replies are sent back to the chat they came from.
func (t *Telegram) Poll(ctx context.Context, dispatcher *Dispatcher) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.bot.GetUpdatesChan(u)
	defer t.bot.StopReceivingUpdates()

	slog.Info("telegram polling started")
	return t.serve(ctx, updates, dispatcher)
}

func (t *Telegram) serve(ctx context.Context, updates <-chan tgbotapi.Update, dispatcher *Dispatcher) error {
	// Received updates are already acknowledged, so their replies must go out
	// even after ctx ends and the dispatcher drains.
	replyCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("telegram polling stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.CallbackQuery != nil {
				t.answerCallback(update.CallbackQuery)
			}
			ev, ok := eventFromUpdate(update)
			if !ok {
				continue
			}

			err := dispatcher.Dispatch(ev, func(reply model.OutboundReply) {
				t.reply(replyCtx, reply)
			})
			if err != nil {
				return err
			}
		}
	}
}

func (t *Telegram) reply(ctx context.Context, reply model.OutboundReply) {
	ctx, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()

	if err := t.Send(ctx, reply); err != nil {
		slog.Error("telegram reply failed", "external_id", reply.UserID, "error", err)
	}
}

// answerCallback stops the client's loading spinner on a pressed button.
func (t *Telegram) answerCallback(query *tgbotapi.CallbackQuery) {
	if _, err := t.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		slog.Warn("telegram callback answer failed", "callback_id", query.ID, "error", err)
	}
}

func eventFromUpdate(update tgbotapi.Update) (model.InboundEvent, bool) {
	if query := update.CallbackQuery; query != nil {
		return eventFromCallback(query)
	}

	msg := update.Message
	if msg == nil || msg.Chat == nil || strings.TrimSpace(msg.Text) == "" {
		return model.InboundEvent{}, false
	}

	ev := model.InboundEvent{
		UserID:    Address(ChannelTelegram, strconv.FormatInt(msg.Chat.ID, 10)),
		Text:      msg.Text,
		Timestamp: msg.Time(),
	}
	if msg.IsCommand() {
		ev.CommandToken = "/" + msg.Command()
	}
	if msg.From != nil {
		ev.Username = msg.From.UserName
		ev.FirstName = msg.From.FirstName
	}

	return ev, true
}

// eventFromCallback turns a pressed reply option into the message it stands for.
func eventFromCallback(query *tgbotapi.CallbackQuery) (model.InboundEvent, bool) {
	if query.Message == nil || query.Message.Chat == nil || strings.TrimSpace(query.Data) == "" {
		return model.InboundEvent{}, false
	}

	ev := model.InboundEvent{
		UserID: Address(ChannelTelegram, strconv.FormatInt(query.Message.Chat.ID, 10)),
		Text:   query.Data,
	}
	if query.From != nil {
		ev.Username = query.From.UserName
		ev.FirstName = query.From.FirstName
	}

	return ev, true
}
