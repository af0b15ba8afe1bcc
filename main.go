package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"telegram-review-notify/handlers"
	"telegram-review-notify/models"
	"telegram-review-notify/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found, using environment variables")
	}

	cfg, err := services.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{})
	if err != nil {
		log.Fatal(err)
	}
	if err := db.AutoMigrate(&models.ReviewTask{}); err != nil {
		log.Fatal(err)
	}

	notifier := services.NewTelegramClient(cfg.TelegramBotToken)
	perms := services.NewAdminPermissionChecker(notifier)
	store := services.NewTaskStore(db)
	svc := services.NewTaskService(store, notifier, perms, cfg.TaskLimit)

	r := gin.Default()
	handler := handlers.NewWebhookHandler(svc, notifier)
	r.POST("/webhook", handler.HandleUpdate)

	if err := r.Run(":8080"); err != nil {
		log.Fatal(err)
	}
}
