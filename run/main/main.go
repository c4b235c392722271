package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/benhmida0588/solbot2026/bot"
	"github.com/benhmida0588/solbot2026/chain"
	"github.com/benhmida0588/solbot2026/config"
	"github.com/benhmida0588/solbot2026/db"
	"github.com/benhmida0588/solbot2026/jupiter"
	"github.com/benhmida0588/solbot2026/server"
	"github.com/benhmida0588/solbot2026/store"
	"github.com/benhmida0588/solbot2026/txlog"
	"github.com/benhmida0588/solbot2026/wallets"
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, err := logrus.ParseLevel(env("LOG_LEVEL", "info")); err == nil {
		log.SetLevel(lvl)
	}

	rpcURL := env("RPC_URL", "https://api.mainnet-beta.solana.com")
	apiPort := env("PORT", "3001")
	wsPort := env("WS_PORT", "3002")
	corsOrigin := env("CORS_ORIGIN", "*")

	// system config
	numCpu := runtime.NumCPU()
	runtime.GOMAXPROCS(numCpu)
	fmt.Println("")
	fmt.Println(color.YellowString("  ----------------- System Info -----------------"))
	fmt.Println(color.CyanString("\t    Number CPU cores available: "), color.GreenString(strconv.Itoa(numCpu)))
	fmt.Println(color.CyanString("\t    RPC endpoint: "), color.GreenString(rpcURL))
	fmt.Println(color.MagentaString(""))

	var (
		st   store.Store
		sink txlog.Sink
	)
	switch backend := env("STORE_BACKEND", "file"); backend {
	case "mysql":
		gormDB, err := db.Connect(
			os.Getenv("MYSQL_USER"),
			os.Getenv("MYSQL_PASSWORD"),
			os.Getenv("MYSQL_DATABASE"),
			os.Getenv("MYSQL_HOST"),
			env("MYSQL_PORT", "3306"),
		)
		if err != nil {
			log.WithError(err).Fatal("database connection failed")
		}
		if err := db.AutoMigrate(gormDB); err != nil {
			log.WithError(err).Fatal("database migration failed")
		}
		gs := store.NewGormStore(gormDB)
		st, sink = gs, gs
	case "file":
		dataDir := env("DATA_DIR", ".")
		st = store.NewFileStore(
			filepath.Join(dataDir, "wallets.json"),
			filepath.Join(dataDir, "config.json"),
		)
	default:
		log.WithField("backend", backend).Fatal("unknown STORE_BACKEND, want file or mysql")
	}

	tl := txlog.New(log, sink)

	registry := wallets.New(st, tl, log)
	registry.Load()
	if secret := os.Getenv("MAIN_WALLET_PRIVATE_KEY"); secret != "" {
		if err := registry.LoadMain(secret); err != nil {
			log.WithError(err).Fatal("invalid MAIN_WALLET_PRIVATE_KEY")
		}
	} else {
		log.Warn("MAIN_WALLET_PRIVATE_KEY not set, funding and provisioning are disabled")
	}

	// a broken config snapshot must stop the process, not trade on defaults
	cfg, err := config.Load(st, tl, log)
	if err != nil {
		log.WithError(err).Fatal("configuration load failed")
	}

	engine := bot.New(log, registry, cfg, tl,
		chain.New(rpcURL),
		jupiter.NewClient(&jupiter.ClientConfig{BaseURL: os.Getenv("JUPITER_BASE_URL")}),
	)

	broadcaster := server.NewBroadcaster(log, engine.Logs)
	broadcaster.Start(":" + wsPort)

	api := server.New(log, engine, corsOrigin)
	go func() {
		if err := api.Listen(":" + apiPort); err != nil {
			log.WithError(err).Fatal("api server failed")
		}
	}()

	fmt.Println(color.GreenString("Service running. Press Ctrl+C to stop."))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	broadcaster.Stop()
	if err := api.Shutdown(); err != nil {
		log.WithError(err).Error("api shutdown failed")
	}
}
