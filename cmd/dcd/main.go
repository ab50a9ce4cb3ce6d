package main

import (
	"flag"
	"log"
	"time"

	v1 "go_dcd/api/v1"
	"go_dcd/internal/cache"
	"go_dcd/internal/chain"
	"go_dcd/internal/config"
	"go_dcd/internal/db"
	"go_dcd/internal/notify"
	"go_dcd/internal/provider"
	"go_dcd/internal/queue"
	"go_dcd/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	iniPath := flag.String("config", "", "path to INI config file (optional)")
	flag.Parse()

	// 1. Load configuration
	var cfg *config.Config
	var err error
	if *iniPath != "" {
		cfg, err = config.LoadFromINI(*iniPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Println("✓ Configuration loaded")

	logger := logrus.NewEntry(logrus.StandardLogger())

	// 2. Initialize MySQL
	gdb, err := db.InitMySQL(cfg.MySQL.DSN)
	if err != nil {
		log.Fatalf("Failed to initialize MySQL: %v", err)
	}
	defer db.Close(gdb)

	if cfg.Migrate {
		if err := db.Migrate(gdb); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
	}

	// 3. Initialize Redis
	rdb, err := cache.InitRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("✓ Redis connected successfully")

	// 4. Wire the job chain
	var dispatcher *notify.Dispatcher
	if cfg.Mail.Enabled {
		sender := notify.NewSMTPSender(cfg.Mail.Host, cfg.Mail.Port,
			cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.From)
		dispatcher = notify.NewDispatcher(sender)
	}

	taskQueue := queue.New(rdb, cfg.Worker.QueueName)
	orch := chain.NewOrchestrator(&chain.Config{
		Store:        store.New(gdb),
		Providers:    provider.NewHCloudFactory(),
		Scheduler:    taskQueue,
		Notifier:     dispatcher,
		Logger:       logger,
		InstanceName: cfg.Worker.InstanceName,
		BackoffBase:  time.Duration(cfg.Poll.BackoffBaseSec) * time.Second,
		BackoffCap:   time.Duration(cfg.Poll.BackoffCapSec) * time.Second,
		MaxRetries:   cfg.Poll.MaxRetries,
	})

	// 5. Start the worker pool
	if cfg.Worker.Enabled {
		worker := queue.NewWorker(&queue.WorkerConfig{
			Queue:       taskQueue,
			Logger:      logger,
			Concurrency: cfg.Worker.Concurrency,
		})
		orch.RegisterHandlers(worker)
		worker.Start()
		defer worker.Stop()
	}

	// 6. Initialize Gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()
	v1.SetupRouter(r, orch)

	log.Printf("✓ Server starting on %s", cfg.HTTPAddr)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
