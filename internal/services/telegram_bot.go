package services

import (
	"context"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"kediacrm/internal/logger"
	"kediacrm/internal/models"
)

// TaskNotifier tells an assignee about a task they were given.
type TaskNotifier interface {
	TaskAssigned(ctx context.Context, task models.Task, assignee models.User) error
}

// messageSender is the part of *tgbotapi.BotAPI the notifier needs.
type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramService struct {
	bot messageSender
}

// NewTelegramService connects to the Bot API. An empty token yields a notifier that does nothing.
func NewTelegramService(botToken string) (*TelegramService, error) {
	if strings.TrimSpace(botToken) == "" {
		return &TelegramService{}, nil
	}
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	logger.Info("[tg] authorized", zap.String("bot", bot.Self.UserName))
	return &TelegramService{bot: bot}, nil
}

func newTelegramServiceWithSender(s messageSender) *TelegramService {
	return &TelegramService{bot: s}
}

func assignmentText(task models.Task) string {
	var b strings.Builder
	b.WriteString("<b>New task</b>\n")
	b.WriteString(html.EscapeString(task.Description))
	fmt.Fprintf(&b, "\nPriority: %s", html.EscapeString(string(task.Priority)))
	if task.GivenBy != "" {
		fmt.Fprintf(&b, "\nFrom: %s", html.EscapeString(task.GivenBy))
	}
	if task.TargetDate != nil {
		fmt.Fprintf(&b, "\nDue: %s", task.TargetDate.Format("2006-01-02"))
	}
	return b.String()
}

func (t *TelegramService) TaskAssigned(_ context.Context, task models.Task, assignee models.User) error {
	if t == nil || t.bot == nil || assignee.TelegramChatID == 0 {
		logger.Info("[tg][skip] bot disabled or no chat id", zap.String("user_id", assignee.ID))
		return nil
	}
	msg := tgbotapi.NewMessage(assignee.TelegramChatID, assignmentText(task))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram sendMessage: %w", err)
	}
	logger.Info("[tg][send] task assigned",
		zap.String("task_id", task.ID),
		zap.Int64("chat_id", assignee.TelegramChatID))
	return nil
}
