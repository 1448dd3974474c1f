package bot

import (
	"context"
	"fmt"

	"github.com/bowerhall/rumbo/internal/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const telegramMessageLimit = 4096

type telegram struct {
	api *tgbotapi.BotAPI
	dispatcher
}

func newTelegram(token string, a Assistant) (Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	return &telegram{api: api, dispatcher: dispatcher{assistant: a}}, nil
}

func (t *telegram) Name() string { return "telegram" }

func (t *telegram) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.api.GetUpdatesChan(u)
	defer t.api.StopReceivingUpdates()

	logger.Info("telegram bot started", "username", t.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			switch {
			case update.CallbackQuery != nil:
				go t.handleCallback(ctx, update.CallbackQuery)
			case update.Message != nil:
				go t.handleMessage(ctx, update.Message)
			}
		}
	}
}

func telegramSessionID(chatID int64) string {
	return fmt.Sprintf("telegram:%d", chatID)
}

func (t *telegram) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	sessionID := telegramSessionID(msg.Chat.ID)

	var from string
	if msg.From != nil {
		from = msg.From.UserName
	}
	logger.Info("message received", "session", sessionID, "from", from, "text", truncate(msg.Text, 50))

	t.api.Request(tgbotapi.NewChatAction(msg.Chat.ID, tgbotapi.ChatTyping))

	out := t.handleText(ctx, sessionID, msg.Text)
	if out.Text == "" {
		return
	}

	chunks := splitMessage(out.Text, telegramMessageLimit)
	for i, chunk := range chunks {
		reply := tgbotapi.NewMessage(msg.Chat.ID, chunk)
		if i == 0 {
			reply.ReplyToMessageID = msg.MessageID
		}
		if i == len(chunks)-1 && out.ApprovalID != "" {
			reply.ReplyMarkup = approvalKeyboard(out.ApprovalID)
		}

		if _, err := t.api.Send(reply); err != nil {
			logger.Error("send failed", "session", sessionID, "error", err)
			return
		}
	}
	logger.Info("reply sent", "session", sessionID, "chars", len(out.Text), "approval", out.ApprovalID)
}

func (t *telegram) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if _, err := t.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		logger.Warn("callback ack failed", "error", err)
	}

	text := t.handleDecision(ctx, cb.Data)
	if cb.Message == nil {
		return
	}

	// drop the buttons so the decision cannot be sent twice
	edit := tgbotapi.NewEditMessageReplyMarkup(cb.Message.Chat.ID, cb.Message.MessageID,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
	if _, err := t.api.Request(edit); err != nil {
		logger.Warn("failed to clear approval buttons", "error", err)
	}

	if _, err := t.api.Send(tgbotapi.NewMessage(cb.Message.Chat.ID, text)); err != nil {
		logger.Error("send failed", "error", err)
	}
}

func approvalKeyboard(approvalID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(approveLabel, callbackData(true, approvalID)),
			tgbotapi.NewInlineKeyboardButtonData(rejectLabel, callbackData(false, approvalID)),
		),
	)
}
