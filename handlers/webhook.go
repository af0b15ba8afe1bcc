package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"telegram-review-notify/models"
	"telegram-review-notify/services"
)

// Telegram の update ペイロード (必要なフィールドのみ)
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message"`
	CallbackQuery *CallbackQuery `json:"callback_query"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from"`
	Date      int64  `json:"date"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

type Chat struct {
	ID    int64  `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
}

type CallbackQuery struct {
	ID      string   `json:"id"`
	From    User     `json:"from"`
	Message *Message `json:"message"`
	Data    string   `json:"data"`
}

// WebhookHandler は Telegram からの update を受けて TaskService に振り分ける
type WebhookHandler struct {
	svc      *services.TaskService
	notifier services.Notifier
}

func NewWebhookHandler(svc *services.TaskService, notifier services.Notifier) *WebhookHandler {
	return &WebhookHandler{svc: svc, notifier: notifier}
}

func (h *WebhookHandler) HandleUpdate(c *gin.Context) {
	var update Update
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid update"})
		return
	}

	switch {
	case update.Message != nil:
		h.handleMessage(update.Message)
	case update.CallbackQuery != nil:
		h.handleCallback(update.CallbackQuery)
	}

	// Telegram は 200 を返さないと同じ update を再送してくる
	c.Status(http.StatusOK)
}

func (h *WebhookHandler) handleMessage(msg *Message) {
	if msg.From == nil || msg.From.IsBot {
		return
	}

	text := strings.TrimSpace(msg.Text)
	switch {
	case text == "/menu" || strings.HasPrefix(text, "/menu "):
		h.handleMenuCommand(msg)
	case text == "/review" || strings.HasPrefix(text, "/review "):
		h.handleReviewCommand(msg)
	}
}

// handleReviewCommand は /review <url> でタスクを登録して表示を返信する
func (h *WebhookHandler) handleReviewCommand(msg *Message) {
	parts := strings.SplitN(strings.TrimSpace(msg.Text), " ", 2)
	if len(parts) != 2 || strings.TrimSpace(parts[1]) == "" {
		if _, err := h.notifier.SendMessage(msg.Chat.ID, services.LocaleIncorrectReviewCommand, nil); err != nil {
			log.Printf("usage reply send error (chat id: %d): %v", msg.Chat.ID, err)
		}
		return
	}

	taskID, err := h.svc.CreateTask(parts[1], msg.Chat.ID, msg.MessageID, msg.From.ID, msg.From.Username, time.Unix(msg.Date, 0))
	if err != nil {
		log.Printf("task create error (chat id: %d): %v", msg.Chat.ID, err)
		if errors.Is(err, services.ErrEmptyURL) {
			h.notifier.SendMessage(msg.Chat.ID, services.LocaleIncorrectReviewCommand, nil)
		}
		return
	}

	task, err := h.svc.GetTaskByID(taskID)
	if err != nil {
		log.Printf("task fetch error (task id: %d): %v", taskID, err)
		return
	}

	if _, err := h.notifier.SendMessage(task.ChatID, services.RenderTaskBody(task), services.TakeKeyboard(task.CorrelationToken)); err != nil {
		log.Printf("task view send error (task id: %d): %v", task.ID, err)
	}
}

func (h *WebhookHandler) handleMenuCommand(msg *Message) {
	if _, err := h.notifier.SendMessage(msg.Chat.ID, services.LocaleMenuHeader, services.MainMenuKeyboard()); err != nil {
		log.Printf("menu send error (chat id: %d): %v", msg.Chat.ID, err)
	}
}

// handleCallback はインラインキーボードの押下を固定のアクション表で振り分ける
func (h *WebhookHandler) handleCallback(q *CallbackQuery) {
	if q.Message == nil {
		return
	}

	action, token, err := services.ParseCallbackData(q.Data)
	if err != nil {
		log.Printf("callback data parse error: %v", err)
		h.answer(q, "")
		return
	}

	switch action {
	case services.ActionTake:
		h.handleTake(q, token)
	case services.ActionSubmit:
		h.handleSubmit(q, token)
	case services.ActionConfirm:
		h.handleConfirm(q, token)
	case services.ActionReject:
		h.handleReject(q, token)
	case services.ActionTasksToPM:
		h.handleTasksToPM(q)
	case services.ActionTasksToChat:
		h.handleTasksToChat(q)
	default:
		log.Printf("unknown callback action: %s", action)
		h.answer(q, "")
	}
}

// resolveTask は照合トークンからタスクを引く
// トークンを持たない古いメッセージは表示テキストのID行から復元する
func (h *WebhookHandler) resolveTask(q *CallbackQuery, token string) (*models.ReviewTask, error) {
	if token != "" {
		task, err := h.svc.GetTaskByToken(token)
		if err == nil {
			return task, nil
		}
		if !errors.Is(err, services.ErrTaskNotFound) {
			return nil, err
		}
	}

	taskID, err := services.ExtractTaskID(q.Message.Text)
	if err != nil {
		return nil, services.ErrTaskNotFound
	}
	return h.svc.GetTaskByID(taskID)
}

func (h *WebhookHandler) handleTake(q *CallbackQuery, token string) {
	task, err := h.resolveTask(q, token)
	if err != nil {
		h.answerError(q, services.LocaleTaskNotFound)
		return
	}

	if q.From.ID == task.PublisherID {
		h.answerError(q, services.LocaleSelfReviewNotAllowed)
		return
	}

	claimed, err := h.svc.ClaimForReview(task.ID, q.From.ID, q.From.Username, q.Message.MessageID, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSelfReview):
			h.answerError(q, services.LocaleSelfReviewNotAllowed)
		case errors.Is(err, services.ErrInvalidTransition):
			h.answerError(q, services.LocaleTaskAlreadyTaken)
		default:
			log.Printf("task claim error (task id: %d): %v", task.ID, err)
			h.answerError(q, services.LocaleInvalidTaskState)
		}
		return
	}

	h.updateTaskView(claimed, services.SubmittedKeyboard(claimed.CorrelationToken))
	h.answer(q, "")
}

func (h *WebhookHandler) handleSubmit(q *CallbackQuery, token string) {
	task, err := h.resolveTask(q, token)
	if err != nil {
		h.answerError(q, services.LocaleTaskNotFound)
		return
	}

	// 担当者本人か管理者だけが提出できる
	var extra []int64
	if task.ReviewerID != nil {
		extra = append(extra, *task.ReviewerID)
	}
	if !h.svc.IsAuthorized(task.ChatID, q.From.ID, extra...) {
		h.answerError(q, services.LocaleSubmitNotAllowed)
		return
	}

	submitted, err := h.svc.SubmitForFinalReview(task.ID, time.Now())
	if err != nil {
		if !errors.Is(err, services.ErrInvalidTransition) {
			log.Printf("task submit error (task id: %d): %v", task.ID, err)
		}
		h.answerError(q, services.LocaleInvalidTaskState)
		return
	}

	h.updateTaskView(submitted, services.ConfirmationKeyboard(submitted.CorrelationToken))
	h.answer(q, "")

	// チャットの管理者全員に最終レビュー依頼をPMで送る
	header := services.RenderTaskHeader(q.Message.Chat.Title)
	admins, err := h.notifier.GetChatAdministrators(submitted.ChatID)
	if err != nil {
		log.Printf("chat administrators fetch error (chat id: %d): %v", submitted.ChatID, err)
		return
	}
	for _, admin := range admins {
		if admin.User.IsBot {
			continue
		}
		text := header + services.LocaleTaskReadyForFinalReview + "\n\n" + services.RenderTaskBody(submitted)
		if _, err := h.notifier.SendMessage(admin.User.ID, text, nil); err != nil {
			log.Printf("final review notice send error (admin id: %d): %v", admin.User.ID, err)
		}
	}
}

func (h *WebhookHandler) handleConfirm(q *CallbackQuery, token string) {
	if !h.svc.IsAuthorized(q.Message.Chat.ID, q.From.ID) {
		h.answerError(q, services.LocaleAdminRightsRequired)
		return
	}

	task, err := h.resolveTask(q, token)
	if err != nil {
		h.answerError(q, services.LocaleTaskNotFound)
		return
	}

	confirmed, err := h.svc.ConfirmReview(task.ID, q.From.Username, time.Now())
	if err != nil {
		if !errors.Is(err, services.ErrInvalidTransition) {
			log.Printf("task confirm error (task id: %d): %v", task.ID, err)
		}
		h.answerError(q, services.LocaleInvalidTaskState)
		return
	}

	h.updateTaskView(confirmed, nil)
	h.answer(q, "")
}

func (h *WebhookHandler) handleReject(q *CallbackQuery, token string) {
	if !h.svc.IsAuthorized(q.Message.Chat.ID, q.From.ID) {
		h.answerError(q, services.LocaleAdminRightsRequired)
		return
	}

	task, err := h.resolveTask(q, token)
	if err != nil {
		h.answerError(q, services.LocaleTaskNotFound)
		return
	}

	rejected, err := h.svc.RejectReview(task.ID)
	if err != nil {
		if !errors.Is(err, services.ErrInvalidTransition) {
			log.Printf("task reject error (task id: %d): %v", task.ID, err)
		}
		h.answerError(q, services.LocaleInvalidTaskState)
		return
	}

	h.updateTaskView(rejected, services.SubmittedKeyboard(rejected.CorrelationToken))
	h.answer(q, "")

	// 差し戻しは担当者にPMで知らせる
	if rejected.ReviewerID != nil {
		text := services.LocaleTaskRejected + "\n\n" + services.RenderTaskBody(rejected)
		if _, err := h.notifier.SendMessage(*rejected.ReviewerID, text, nil); err != nil {
			log.Printf("reject notice send error (reviewer id: %d): %v", *rejected.ReviewerID, err)
		}
	}
}

func (h *WebhookHandler) handleTasksToPM(q *CallbackQuery) {
	h.answer(q, "")
	header := services.RenderTaskHeader(q.Message.Chat.Title)
	if err := h.svc.NotifyReviewerTasks(q.Message.Chat.ID, q.From.ID, header); err != nil {
		log.Printf("reviewer tasks notify error (reviewer id: %d): %v", q.From.ID, err)
	}
}

func (h *WebhookHandler) handleTasksToChat(q *CallbackQuery) {
	if !h.svc.IsAuthorized(q.Message.Chat.ID, q.From.ID) {
		h.answerError(q, services.LocaleAdminRightsRequired)
		return
	}

	h.answer(q, "")
	header := services.RenderTaskHeader(q.Message.Chat.Title)
	if err := h.svc.BroadcastChatTasks(q.Message.Chat.ID, header); err != nil {
		log.Printf("chat tasks broadcast error (chat id: %d): %v", q.Message.Chat.ID, err)
	}
}

// updateTaskView はタスクの表示メッセージを現在の状態で上書きする
func (h *WebhookHandler) updateTaskView(task *models.ReviewTask, markup *services.InlineKeyboardMarkup) {
	if task.ReplyMsgID == nil {
		return
	}
	if err := h.notifier.EditMessageText(task.ChatID, *task.ReplyMsgID, services.RenderTaskBody(task), markup); err != nil {
		log.Printf("task view update error (task id: %d): %v", task.ID, err)
	}
}

func (h *WebhookHandler) answer(q *CallbackQuery, text string) {
	if err := h.notifier.AnswerCallbackQuery(q.ID, text, false); err != nil {
		log.Printf("callback answer error (callback id: %s): %v", q.ID, err)
	}
}

// answerError は一時的なエラーメッセージをアラートとして表示する
func (h *WebhookHandler) answerError(q *CallbackQuery, text string) {
	if err := h.notifier.AnswerCallbackQuery(q.ID, text, true); err != nil {
		log.Printf("callback answer error (callback id: %s): %v", q.ID, err)
	}
}
