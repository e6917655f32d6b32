// Package telegram exposes the intake conversation and the weekly plan
// through a Telegram bot webhook.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"mealweek/internal/config"
	"mealweek/internal/intake"
	"mealweek/internal/metrics"
	"mealweek/internal/planner"
	"mealweek/internal/profile"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sessionTTL is how long an idle intake conversation survives.
const sessionTTL = 24 * time.Hour

// Bot wraps the Telegram API and the meal planning services.
type Bot struct {
	api          *tgbotapi.BotAPI
	planner      *planner.Planner
	sessions     *intake.SessionRepository
	profiles     *profile.Repository
	planRepo     *planner.PlanRepository
	metricsStore *metrics.Store
	cfg          *config.Config
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(
	cfg *config.Config,
	pl *planner.Planner,
	sessions *intake.SessionRepository,
	profiles *profile.Repository,
	planRepo *planner.PlanRepository,
	metricsStore *metrics.Store,
) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	wh, _ := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	resp, err := bot.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return &Bot{
		api:          bot,
		planner:      pl,
		sessions:     sessions,
		profiles:     profiles,
		planRepo:     planRepo,
		metricsStore: metricsStore,
		cfg:          cfg,
	}, nil
}

// RegisterHandlers registers the webhook handler with the default HTTP mux.
func (b *Bot) RegisterHandlers() {
	http.HandleFunc("/webhook", b.handleWebhook)
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}

	if update.CallbackQuery != nil {
		if allowedUser(b.cfg.TelegramAllowedUserIDs, update.CallbackQuery.From.ID) {
			b.handleCallbackQuery(update.CallbackQuery)
		}
		return
	}

	if update.Message == nil {
		return
	}

	if !allowedUser(b.cfg.TelegramAllowedUserIDs, update.Message.From.ID) {
		log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)", update.Message.From.ID, update.Message.From.UserName)
		return
	}

	go b.processMessage(update.Message)
}

// allowedUser checks the configured allow-list. An empty list allows
// nobody; the bot is private by default.
func allowedUser(ids []int64, id int64) bool {
	for _, allowed := range ids {
		if allowed == id {
			return true
		}
	}
	return false
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx := context.Background()
	userID := fmt.Sprintf("%d", msg.From.ID)

	switch strings.TrimSpace(msg.Text) {
	case "/start":
		b.send(msg.Chat.ID, welcomeText)
	case "/intake":
		b.startIntake(ctx, userID, msg.Chat.ID)
	case "/back":
		b.handleBack(ctx, userID, msg.Chat.ID)
	case "/plan":
		b.handlePlanRequest(ctx, userID, msg.Chat.ID)
	case "/regenerate":
		b.handleRegenerateRequest(ctx, userID, msg.Chat.ID)
	case "/metrics":
		if msg.From.ID != b.cfg.AdminTelegramID {
			b.send(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
			return
		}
		b.handleMetricsCommand(msg.Chat.ID)
	default:
		b.handleFreeText(ctx, userID, msg.Chat.ID, msg.Text)
	}
}

const welcomeText = "👋 *Welcome!*\n\n" +
	"I plan your week's meals around your household.\n\n" +
	"• /intake — answer a few questions about how you cook\n" +
	"• /back — revisit the previous intake question\n" +
	"• /plan — get this week's meal plan\n" +
	"• /regenerate — throw the plan away and make a new one"

// startIntake begins a fresh conversation, discarding any live one.
func (b *Bot) startIntake(ctx context.Context, userID string, chatID int64) {
	if err := b.sessions.Delete(ctx, userID); err != nil {
		log.Printf("Warning: failed to clear old session for user %s: %v", userID, err)
	}

	sess := intake.NewSession(intake.Catalog())
	if err := b.sessions.Save(ctx, userID, sess, sessionTTL); err != nil {
		log.Printf("Error saving session for user %s: %v", userID, err)
		b.send(chatID, "❌ Something went wrong starting the intake. Please try again.")
		return
	}
	b.send(chatID, formatQuestion(sess.Question(), sess.Index, sess.Total()))
}

// handleFreeText treats plain text as an answer when an intake session
// is live, and as noise otherwise.
func (b *Bot) handleFreeText(ctx context.Context, userID string, chatID int64, text string) {
	sess, err := b.sessions.GetActive(ctx, userID, time.Now())
	if err != nil {
		log.Printf("Error loading session for user %s: %v", userID, err)
		return
	}
	if sess == nil {
		b.send(chatID, "Use /intake to set up your profile or /plan to get this week's meals.")
		return
	}

	value, err := intake.ParseValue(sess.Question(), text)
	if err != nil {
		b.rejectAnswer(chatID, *sess, err)
		return
	}

	next, err := sess.Submit(value)
	if err != nil {
		b.rejectAnswer(chatID, *sess, err)
		return
	}

	if next.Stage == intake.StageFinalizing {
		p := profile.FromAnswers(userID, next.Answers)
		if err := b.profiles.Upsert(ctx, p); err != nil {
			log.Printf("Error saving profile for user %s: %v", userID, err)
			b.send(chatID, "❌ Failed to save your profile. Please try again.")
			return
		}
		if _, err := next.Finalize(); err != nil {
			log.Printf("Error finalizing session for user %s: %v", userID, err)
		}
		if err := b.sessions.Delete(ctx, userID); err != nil {
			log.Printf("Warning: failed to delete finished session for user %s: %v", userID, err)
		}
		b.send(chatID, formatProfileSummary(p))
		return
	}

	if err := b.sessions.Save(ctx, userID, next, sessionTTL); err != nil {
		log.Printf("Error saving session for user %s: %v", userID, err)
		b.send(chatID, "❌ Something went wrong. Please repeat your answer.")
		return
	}
	ack := intake.AckFor(len(next.Answers))
	b.send(chatID, ack+"\n\n"+formatQuestion(next.Question(), next.Index, next.Total()))
}

func (b *Bot) rejectAnswer(chatID int64, sess intake.Session, err error) {
	b.send(chatID, fmt.Sprintf("❌ %s\n\n%s", validationReason(err), formatQuestion(sess.Question(), sess.Index, sess.Total())))
}

func (b *Bot) handleBack(ctx context.Context, userID string, chatID int64) {
	sess, err := b.sessions.GetActive(ctx, userID, time.Now())
	if err != nil {
		log.Printf("Error loading session for user %s: %v", userID, err)
		return
	}
	if sess == nil {
		b.send(chatID, "No intake in progress. Use /intake to start one.")
		return
	}

	next := sess.Back()
	if err := b.sessions.Save(ctx, userID, next, sessionTTL); err != nil {
		log.Printf("Error saving session for user %s: %v", userID, err)
		return
	}

	text := formatQuestion(next.Question(), next.Index, next.Total())
	if next.Pending.Format() != "" {
		text += fmt.Sprintf("\n\nYour previous answer: %s", next.Pending.Format())
	}
	b.send(chatID, text)
}

func (b *Bot) handlePlanRequest(ctx context.Context, userID string, chatID int64) {
	sentMsg, ok := b.sendThinking(chatID)
	if !ok {
		return
	}
	b.generateAndSendPlan(ctx, userID, chatID, sentMsg.MessageID, false)
}

// handleRegenerateRequest asks for confirmation when a plan already
// exists for this week; regeneration discards it.
func (b *Bot) handleRegenerateRequest(ctx context.Context, userID string, chatID int64) {
	weekStart := planner.StartOfWeek(time.Now())
	entry, err := b.planRepo.GetForWeek(ctx, userID, weekStart)
	if err != nil {
		log.Printf("Error checking plan for user %s: %v", userID, err)
	}

	if entry == nil {
		sentMsg, ok := b.sendThinking(chatID)
		if !ok {
			return
		}
		b.generateAndSendPlan(ctx, userID, chatID, sentMsg.MessageID, true)
		return
	}

	promptText := fmt.Sprintf("🗓️ You already have a plan for the week of *%s*.\nRegenerating will replace it. Continue?", planner.WeekKey(weekStart))
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Regenerate", "regen"),
			tgbotapi.NewInlineKeyboardButtonData("❌ Keep current", "keep"),
		),
	)
	reply := tgbotapi.NewMessage(chatID, promptText)
	reply.ParseMode = "Markdown"
	reply.ReplyMarkup = keyboard
	b.api.Send(reply)
}

func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	ctx := context.Background()
	userID := fmt.Sprintf("%d", query.From.ID)
	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID

	// Answer callback to remove spinner
	b.api.Request(tgbotapi.NewCallback(query.ID, ""))

	switch query.Data {
	case "regen":
		edit := tgbotapi.NewEditMessageText(chatID, messageID, "🧑‍🍳 *Thinking...*")
		edit.ParseMode = "Markdown"
		b.api.Send(edit)
		b.generateAndSendPlan(ctx, userID, chatID, messageID, true)
	case "keep":
		edit := tgbotapi.NewEditMessageText(chatID, messageID, "👍 Keeping your current plan. Use /plan to see it.")
		b.api.Send(edit)
	}
}

func (b *Bot) generateAndSendPlan(ctx context.Context, userID string, chatID int64, messageID int, force bool) {
	now := time.Now()
	weekStart := planner.StartOfWeek(now)

	var (
		content string
		err     error
	)
	if force {
		content, err = b.planner.Regenerate(ctx, userID, now)
	} else {
		content, err = b.planner.GetOrGenerate(ctx, userID, now)
	}

	if err != nil {
		b.editOrFallback(ctx, userID, chatID, messageID, weekStart, content, err)
		return
	}

	edit := tgbotapi.NewEditMessageText(chatID, messageID, formatPlanMessage(weekStart, content))
	edit.ParseMode = "Markdown"
	b.api.Send(edit)
}

// editOrFallback turns a planner failure into the best message we can
// give: the fresh-but-uncached plan, a stale plan from an earlier week,
// or the error itself.
func (b *Bot) editOrFallback(ctx context.Context, userID string, chatID int64, messageID int, weekStart time.Time, content string, err error) {
	log.Printf("Error generating plan for user %s: %v", userID, err)

	var finalText string
	switch {
	case errors.Is(err, planner.ErrProfileMissing):
		finalText = "🤷 I don't know your household yet. Run /intake first."
	case isStoreWriteError(err):
		finalText = formatPlanMessage(weekStart, content) + "\n\n⚠️ _I couldn't save this plan; /plan may regenerate it._"
	default:
		stale, lookupErr := b.planRepo.LatestBefore(ctx, userID, weekStart)
		if lookupErr != nil {
			log.Printf("Error looking up stale plan for user %s: %v", userID, lookupErr)
		}
		if stale != nil {
			finalText = fmt.Sprintf("⚠️ I couldn't generate a fresh plan right now. Here is your plan from the week of *%s*:\n\n%s",
				planner.WeekKey(stale.WeekStart), stale.Content)
		} else {
			safeErr := strings.ReplaceAll(err.Error(), "`", "'")
			finalText = fmt.Sprintf("❌ *Error generating plan:*\n```\n%v\n```", safeErr)
		}
	}

	edit := tgbotapi.NewEditMessageText(chatID, messageID, finalText)
	edit.ParseMode = "Markdown"
	b.api.Send(edit)
}

func isStoreWriteError(err error) bool {
	var storeErr *planner.StoreWriteError
	return errors.As(err, &storeErr)
}

func (b *Bot) handleMetricsCommand(chatID int64) {
	usage, err := b.metricsStore.GetDailyUsage(7)
	if err != nil {
		b.api.Send(tgbotapi.NewMessage(chatID, "❌ Error fetching metrics."))
		return
	}

	var sb strings.Builder
	sb.WriteString("📊 *Usage Report*\n\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d calls)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalCalls))
	}

	b.send(chatID, sb.String())
}

func (b *Bot) sendThinking(chatID int64) (tgbotapi.Message, bool) {
	replyMsg := tgbotapi.NewMessage(chatID, "🧑‍🍳 *Thinking...* \n(Putting your week together)")
	replyMsg.ParseMode = "Markdown"
	sentMsg, err := b.api.Send(replyMsg)
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
		return tgbotapi.Message{}, false
	}
	return sentMsg, true
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	b.api.Send(msg)
}

// validationReason strips the question id prefix; chat users see the
// question right below the message anyway.
func validationReason(err error) string {
	if vErr, ok := err.(*intake.ValidationError); ok {
		return vErr.Reason
	}
	return err.Error()
}

func formatQuestion(q intake.Question, index, total int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*Question %d/%d*\n%s", index+1, total, q.Prompt))

	switch q.Type {
	case intake.TypeNumber:
		sb.WriteString("\n\n_Reply with a number._")
	case intake.TypeMulti:
		sb.WriteString(fmt.Sprintf("\n\nOptions: %s\n_Reply with a comma-separated list._", strings.Join(q.Options, ", ")))
	case intake.TypeSingle:
		sb.WriteString(fmt.Sprintf("\n\nOptions: %s", strings.Join(q.Options, ", ")))
	case intake.TypeToggle:
		sb.WriteString("\n\n_Reply Yes or No._")
	}
	return sb.String()
}

func formatProfileSummary(p profile.Profile) string {
	var sb strings.Builder
	sb.WriteString("✅ *Profile saved!*\n\n")

	if p.HouseholdSize != nil {
		sb.WriteString(fmt.Sprintf("• Household: %d\n", *p.HouseholdSize))
	}
	if p.PickyEaters != "" {
		sb.WriteString(fmt.Sprintf("• Picky eaters: %s\n", p.PickyEaters))
	}
	if len(p.CookingDays) > 0 {
		sb.WriteString(fmt.Sprintf("• Cooking days: %s\n", strings.Join(p.CookingDays, ", ")))
	}
	if len(p.Goals) > 0 {
		sb.WriteString(fmt.Sprintf("• Goals: %s\n", strings.Join(p.Goals, ", ")))
	}
	sb.WriteString(fmt.Sprintf("• Skill level: %s\n", p.SkillLevel))
	sb.WriteString(fmt.Sprintf("• Tone: %s\n", p.Tone))

	sb.WriteString("\nUse /plan whenever you want this week's meals.")
	return sb.String()
}

func formatPlanMessage(weekStart time.Time, content string) string {
	return fmt.Sprintf("📅 *Meal Plan — week of %s*\n\n%s", planner.WeekKey(weekStart), content)
}
