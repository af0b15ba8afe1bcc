package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"telegram-review-notify/models"
)

// コールバックデータに載せる操作の種類 (固定セット)
const (
	ActionTake        = "take"
	ActionSubmit      = "submit"
	ActionConfirm     = "confirm"
	ActionReject      = "reject"
	ActionTasksToPM   = "tasks_to_pm"
	ActionTasksToChat = "tasks_to_chat"
)

const callbackPrefix = "rv"

// CallbackData は "rv:<action>:<token>" 形式のコールバックデータを組み立てる
// メニュー操作のようにタスクに紐付かない場合は token を空にする
func CallbackData(action, token string) string {
	return callbackPrefix + ":" + action + ":" + token
}

// ParseCallbackData はコールバックデータから操作とトークンを取り出す
func ParseCallbackData(data string) (action, token string, err error) {
	parts := strings.SplitN(data, ":", 3)
	if len(parts) != 3 || parts[0] != callbackPrefix || parts[1] == "" {
		return "", "", fmt.Errorf("unknown callback data: %q", data)
	}
	return parts[1], parts[2], nil
}

var taskIDPattern = regexp.MustCompile(`(?m)^Task #(\d+)$`)

// RenderTaskBody はタスクの表示テキストを組み立てる
// 先頭の "Task #<id>" 行は ExtractTaskID が読み戻すため形式を変えないこと
func RenderTaskBody(task *models.ReviewTask) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Task #%d\n", task.ID)
	fmt.Fprintf(&b, "URL: %s\n", task.URL)
	fmt.Fprintf(&b, "Publisher: @%s\n", task.PublisherName)
	if task.ReviewerID != nil {
		fmt.Fprintf(&b, "Reviewer: @%s\n", task.ReviewerName)
	}
	if task.FinalReviewerName != "" {
		fmt.Fprintf(&b, "Final reviewer: @%s\n", task.FinalReviewerName)
	}
	fmt.Fprintf(&b, "Status: %s", statusLabel(task.Status()))

	return b.String()
}

// RenderTaskHeader は通知の先頭に付けるチャット由来のヘッダー
func RenderTaskHeader(chatTitle string) string {
	return fmt.Sprintf("%s: %s\n\n", LocaleChatOriginPrefix, chatTitle)
}

// RenderLimitNotice はタスク上限超過時のまとめ通知
func RenderLimitNotice(totalOnReview int64, taskLimit int) string {
	return fmt.Sprintf("%s: %d\n%s: %d", LocaleTooManyUnfinishedTasks, totalOnReview, LocaleTaskLimitIs, taskLimit)
}

// ExtractTaskID は表示テキストからタスクIDを読み戻す
// トークンを持たない古いメッセージとの互換のために残している
func ExtractTaskID(text string) (int64, error) {
	matches := taskIDPattern.FindStringSubmatch(text)
	if len(matches) != 2 {
		return 0, fmt.Errorf("task id not found in message text")
	}
	id, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("task id parse error: %w", err)
	}
	return id, nil
}

func statusLabel(status models.TaskStatus) string {
	switch status {
	case models.StatusDraft:
		return "waiting for a reviewer"
	case models.StatusOnReview:
		return "on review"
	case models.StatusSubmittedForFinalReview:
		return "submitted for final review"
	case models.StatusConfirmed:
		return "confirmed"
	default:
		return string(status)
	}
}

// TakeKeyboard は未割り当てタスクのメニュー
func TakeKeyboard(token string) *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{{
		{Text: "Take on review", CallbackData: CallbackData(ActionTake, token)},
	}}}
}

// SubmittedKeyboard はレビュー中タスクのメニュー
func SubmittedKeyboard(token string) *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{{
		{Text: "Submitted", CallbackData: CallbackData(ActionSubmit, token)},
	}}}
}

// ConfirmationKeyboard は最終レビュー待ちタスクのメニュー
func ConfirmationKeyboard(token string) *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{{
		{Text: "Confirm", CallbackData: CallbackData(ActionConfirm, token)},
		{Text: "Reject", CallbackData: CallbackData(ActionReject, token)},
	}}}
}

// MainMenuKeyboard はメニューコマンドに付けるファンアウト操作
func MainMenuKeyboard() *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{
		{{Text: "My tasks to PM", CallbackData: CallbackData(ActionTasksToPM, "")}},
		{{Text: "All tasks to chat", CallbackData: CallbackData(ActionTasksToChat, "")}},
	}}
}

// KeyboardForTask はタスクの状態に応じた操作メニューを返す
func KeyboardForTask(task *models.ReviewTask) *InlineKeyboardMarkup {
	switch task.Status() {
	case models.StatusDraft:
		return TakeKeyboard(task.CorrelationToken)
	case models.StatusOnReview:
		return SubmittedKeyboard(task.CorrelationToken)
	case models.StatusSubmittedForFinalReview:
		return ConfirmationKeyboard(task.CorrelationToken)
	default:
		return nil
	}
}
