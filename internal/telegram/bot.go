package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ai-trip-planner/internal/app"
	"ai-trip-planner/internal/config"
	"ai-trip-planner/internal/history"
	"ai-trip-planner/internal/logging"
	"ai-trip-planner/internal/metrics"
	"ai-trip-planner/internal/planner"
	"ai-trip-planner/internal/trip"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// planTimeout bounds a whole run including every refinement round.
const planTimeout = 15 * time.Minute

// Service is the part of the application the bot talks to.
type Service interface {
	PlanTrip(ctx context.Context, params trip.Parameters, opts app.PlanOptions) (*app.Outcome, error)
	History(ctx context.Context, limit int) ([]history.Run, error)
	Usage(ctx context.Context, days int) ([]metrics.DailyUsage, error)
	Health() metrics.SysHealth
}

// Bot wraps the Telegram API and the trip planner.
type Bot struct {
	api     *tgbotapi.BotAPI
	service Service
	cfg     config.TelegramConfig
	logger  *logging.Logger
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg config.TelegramConfig, service Service, logger *logging.Logger) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	logger.Info("telegram bot authorized", "account", bot.Self.UserName)

	wh, err := tgbotapi.NewWebhook(cfg.WebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.WebhookURL, err)
	}
	resp, err := bot.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.WebhookURL, err)
	}
	logger.Info("webhook set", "description", resp.Description)

	return &Bot{
		api:     bot,
		service: service,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// RegisterHandlers registers the webhook handler on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		b.logger.Warn("failed to parse update", "error", err.Error())
		return
	}

	if update.Message == nil || update.Message.From == nil {
		return
	}

	if !isAllowed(b.cfg, update.Message.From.ID) {
		b.logger.Warn("unauthorized access attempt",
			"user_id", update.Message.From.ID,
			"username", update.Message.From.UserName)
		return
	}

	go b.processMessage(update.Message)
}

func isAllowed(cfg config.TelegramConfig, userID int64) bool {
	if userID == cfg.AdminUserID && userID != 0 {
		return true
	}
	for _, id := range cfg.AllowedUserIDs {
		if userID == id {
			return true
		}
	}
	return false
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "plan":
		b.handlePlanRequest(msg)
	case "history":
		b.handleHistoryRequest(msg)
	case "metrics":
		b.handleMetricsRequest(msg)
	default:
		b.send(msg.Chat.ID, helpText)
	}
}

const helpText = "🧭 *Trip Planner*\n\n" +
	"`/plan Tokyo, Japan | 2025-04-01 | 2025-04-10 | mid-range | moderate | food, temples`\n" +
	"Budget, pace and interests are optional.\n\n" +
	"`/history` lists recent trips."

func (b *Bot) handlePlanRequest(msg *tgbotapi.Message) {
	params, err := parsePlanCommand(msg.CommandArguments())
	if err != nil {
		b.send(msg.Chat.ID, fmt.Sprintf("❌ %s\n\n%s", escapeMarkdown(err.Error()), helpText))
		return
	}

	statusText := fmt.Sprintf("🔎 *Researching %s...*", escapeMarkdown(params.Destination))
	replyMsg := tgbotapi.NewMessage(msg.Chat.ID, statusText)
	replyMsg.ParseMode = tgbotapi.ModeMarkdown
	sentMsg, err := b.api.Send(replyMsg)
	if err != nil {
		b.logger.Warn("failed to send initial reply", "error", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), planTimeout)
	defer cancel()

	status := func(text string) {
		edit := tgbotapi.NewEditMessageText(msg.Chat.ID, sentMsg.MessageID, text)
		edit.ParseMode = tgbotapi.ModeMarkdown
		b.api.Send(edit)
	}

	out, err := b.service.PlanTrip(ctx, params, app.PlanOptions{
		PublicReferencesOnly: true,
		Observer: &planner.Observer{
			OnDraft: func(iteration int, _ trip.PlanDraft) {
				status(fmt.Sprintf("🗺 *Reviewing draft %d...*", iteration))
			},
			OnVerdict: func(iteration int, v trip.ReviewVerdict) {
				if !v.Approved {
					status(fmt.Sprintf("✏️ *Draft %d scored %.1f/10, revising...*", iteration, v.Score))
				}
			},
		},
	})
	if err != nil {
		b.logger.Error("failed to plan trip", "destination", params.Destination, "error", err.Error())
		safeErr := strings.ReplaceAll(err.Error(), "`", "'")
		status(fmt.Sprintf("❌ *Error planning trip:*\n```\n%v\n```", safeErr))
		return
	}

	summary, body := formatItineraryParts(out.Session)
	status(summary)
	for _, part := range body {
		// plain text: model output is not valid Telegram markdown
		b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, part))
	}
}

func (b *Bot) handleHistoryRequest(msg *tgbotapi.Message) {
	runs, err := b.service.History(context.Background(), 5)
	if err != nil {
		b.logger.Error("failed to load history", "error", err.Error())
		b.send(msg.Chat.ID, "❌ Error fetching history.")
		return
	}
	b.send(msg.Chat.ID, formatHistory(runs))
}

func (b *Bot) handleMetricsRequest(msg *tgbotapi.Message) {
	if msg.From.ID != b.cfg.AdminUserID {
		b.send(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
		return
	}

	usage, err := b.service.Usage(context.Background(), 7)
	if err != nil {
		b.send(msg.Chat.ID, "❌ Error fetching metrics.")
		return
	}
	b.send(msg.Chat.ID, formatMetrics(usage, b.service.Health()))
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("failed to send message", "chat_id", chatID, "error", err.Error())
	}
}
