package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const telegramAPIBase = "https://api.telegram.org"

// Notifier はチャット基盤への送信境界
// 本番は TelegramClient、テストでは gock でHTTP層ごと差し替える
type Notifier interface {
	SendMessage(chatID int64, text string, markup *InlineKeyboardMarkup) (int64, error)
	EditMessageText(chatID, messageID int64, text string, markup *InlineKeyboardMarkup) error
	DeleteMessage(chatID, messageID int64) error
	GetChatAdministrators(chatID int64) ([]ChatMember, error)
	AnswerCallbackQuery(callbackQueryID, text string, showAlert bool) error
}

type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
}

type TelegramUser struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

type ChatMember struct {
	User   TelegramUser `json:"user"`
	Status string       `json:"status"`
}

type telegramResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description,omitempty"`
}

type sentMessage struct {
	MessageID int64 `json:"message_id"`
}

// TelegramClient は Telegram Bot API のクライアント
type TelegramClient struct {
	token string
}

func NewTelegramClient(token string) *TelegramClient {
	return &TelegramClient{token: token}
}

// callMethod はBot APIのメソッドをJSONボディ付きで呼び出す
func (c *TelegramClient) callMethod(method string, body map[string]interface{}) (json.RawMessage, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/bot%s/%s", telegramAPIBase, c.token, method)
	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	var tgResp telegramResponse
	if err := json.Unmarshal(bodyBytes, &tgResp); err != nil {
		return nil, fmt.Errorf("telegram response parse error: %w", err)
	}
	if !tgResp.OK {
		return nil, fmt.Errorf("%w: telegram error: %s", ErrDeliveryFailed, tgResp.Description)
	}
	return tgResp.Result, nil
}

// SendMessage はメッセージを送信して message_id を返す
func (c *TelegramClient) SendMessage(chatID int64, text string, markup *InlineKeyboardMarkup) (int64, error) {
	body := map[string]interface{}{
		"chat_id":                  chatID,
		"text":                     text,
		"disable_web_page_preview": true,
		"disable_notification":     true,
	}
	if markup != nil {
		body["reply_markup"] = markup
	}

	result, err := c.callMethod("sendMessage", body)
	if err != nil {
		return 0, err
	}

	var msg sentMessage
	if err := json.Unmarshal(result, &msg); err != nil {
		return 0, fmt.Errorf("telegram response parse error: %w", err)
	}
	return msg.MessageID, nil
}

func (c *TelegramClient) EditMessageText(chatID, messageID int64, text string, markup *InlineKeyboardMarkup) error {
	body := map[string]interface{}{
		"chat_id":                  chatID,
		"message_id":               messageID,
		"text":                     text,
		"disable_web_page_preview": true,
	}
	if markup != nil {
		body["reply_markup"] = markup
	}

	_, err := c.callMethod("editMessageText", body)
	return err
}

func (c *TelegramClient) DeleteMessage(chatID, messageID int64) error {
	_, err := c.callMethod("deleteMessage", map[string]interface{}{
		"chat_id":    chatID,
		"message_id": messageID,
	})
	return err
}

func (c *TelegramClient) GetChatAdministrators(chatID int64) ([]ChatMember, error) {
	result, err := c.callMethod("getChatAdministrators", map[string]interface{}{
		"chat_id": chatID,
	})
	if err != nil {
		return nil, err
	}

	var members []ChatMember
	if err := json.Unmarshal(result, &members); err != nil {
		return nil, fmt.Errorf("telegram response parse error: %w", err)
	}
	return members, nil
}

// AnswerCallbackQuery はコールバックの応答を返す
// text ありで showAlert を立てると一時的なエラーメッセージとして表示される
func (c *TelegramClient) AnswerCallbackQuery(callbackQueryID, text string, showAlert bool) error {
	body := map[string]interface{}{
		"callback_query_id": callbackQueryID,
	}
	if text != "" {
		body["text"] = text
		body["show_alert"] = showAlert
	}

	_, err := c.callMethod("answerCallbackQuery", body)
	return err
}
