package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"

	"stan-guard/internal/automod"
	"stan-guard/internal/config"
	"stan-guard/internal/crash"
	"stan-guard/internal/handler"
	"stan-guard/internal/logger"
	"stan-guard/internal/moderation"
	"stan-guard/internal/platform/discord"
	"stan-guard/internal/service"
	"stan-guard/internal/storage"
)

func main() {
	defer crash.RecoverWithStackAndExit("main")

	// Define command line flags
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging first
	if err := logger.Setup(cfg); err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}

	// Initialize database
	if err := storage.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	log.Println("Database connection established")

	db := storage.GetDB()
	sanctionRepo := storage.NewSanctionRepository(db)
	settingsRepo := storage.NewSettingsRepository(db)
	memberRepo := storage.NewMemberRepository(db)
	for name, migrate := range map[string]func() error{
		"sanctions": sanctionRepo.MigrateTable,
		"settings":  settingsRepo.MigrateTable,
		"members":   memberRepo.MigrateTable,
	} {
		if err := migrate(); err != nil {
			log.Fatalf("Failed to migrate %s table: %v", name, err)
		}
	}

	// Connect to Discord; gateway chatter goes to its own rotating file
	gatewayLog := log.New(logger.GetRotatingLogWriter(cfg, "discord"), "", log.Ldate|log.Ltime)
	discordgo.Logger = func(msgL, caller int, format string, a ...interface{}) {
		gatewayLog.Printf(format, a...)
	}

	session, err := discordgo.New("Bot " + cfg.Bot.Token)
	if err != nil {
		log.Fatalf("Failed to create Discord session: %v", err)
	}
	session.LogLevel = discordgo.LogWarning
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildBans |
		discordgo.IntentMessageContent
	session.State.MaxMessageCount = 200

	adapter := discord.NewAdapter(session)
	settingsService := service.NewSettingsService(settingsRepo, cfg.Moderation)
	memberService := service.NewMemberService(memberRepo, adapter)
	engine := automod.NewEngine(automod.LoadGlobalLists(cfg.Automod.BlacklistFile, cfg.Automod.BadLinksFile))

	orch := moderation.NewOrchestrator(adapter, adapter, adapter, sanctionRepo, settingsService)
	sweeper := moderation.NewSweeper(orch, adapter, sanctionRepo, memberService, cfg.Automod.SweepInterval)

	handler.New(adapter, orch, settingsService, memberService, engine, sanctionRepo).Register()

	if err := session.Open(); err != nil {
		log.Fatalf("Failed to open Discord gateway: %v", err)
	}
	defer session.Close()

	stopSweep := sweeper.Start()
	defer stopSweep()

	// Wait for signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Printf("Received signal: %v, shutting down...", sig)
}
