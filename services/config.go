package services

import (
	"fmt"
	"os"
	"strconv"
)

const (
	defaultDatabasePath = "review_tasks.db"
	defaultTaskLimit    = 5
)

// Config は環境変数から読み込む設定
// .env の読み込み (godotenv) は main 側で行う
type Config struct {
	TelegramBotToken string
	DatabasePath     string
	TaskLimit        int
}

func LoadConfig() (*Config, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = defaultDatabasePath
	}

	taskLimit := defaultTaskLimit
	if v := os.Getenv("TASK_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid TASK_LIMIT: %q", v)
		}
		taskLimit = n
	}

	return &Config{
		TelegramBotToken: token,
		DatabasePath:     dbPath,
		TaskLimit:        taskLimit,
	}, nil
}
