package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"pickemEngine/config"
	"pickemEngine/models"
	"pickemEngine/scheduler"
	"pickemEngine/services/extService"
	"pickemEngine/services/quotaService"
	"pickemEngine/services/settleService"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"github.com/xo/dburl"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

func init() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, relying on environment")
	}

	connString := os.Getenv("DATABASE_URL")
	if connString == "" {
		log.Fatalf("DATABASE_URL not set in environment variables")
	}

	u, err := dburl.Parse(connString)
	if err != nil {
		log.Fatalf("Error parsing DATABASE_URL: %v", err)
	}

	db, err = gorm.Open(mysql.Open(u.DSN+"?charset=utf8mb4&parseTime=True&loc=Local"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	err = models.AutoMigrate(db)
	if err != nil {
		log.Fatalf("Error migrating database: %v", err)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	if err = settleService.RunBasePointsBackfill(db); err != nil {
		log.Fatalf("Error running base points backfill: %v", err)
	}

	var session *discordgo.Session
	if token := os.Getenv("DISCORD_BOT_TOKEN"); token != "" && cfg.Discord.ChannelID != "" {
		session, err = discordgo.New("Bot " + token)
		if err != nil {
			log.Fatalf("Error creating Discord session: %v", err)
		}
		if err = session.Open(); err != nil {
			log.Fatalf("Error opening Discord session: %v", err)
		}
		defer func(s *discordgo.Session) {
			_ = s.Close()
		}(session)
	}

	quota := quotaService.New(db, cfg.Quota.MonthlyBudget)
	feed := extService.NewClient(db, quota, cfg.Feed)

	sched := scheduler.New(db, cfg, feed, session)
	if err = sched.Start(); err != nil {
		log.Fatalf("Error starting scheduler: %v", err)
	}
	defer sched.Stop()

	log.Println("Pick'em engine is running. Press CTRL+C to exit.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
}
