package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trxmining/internal/config"
	"trxmining/internal/handler"
	"trxmining/internal/infrastructure/cache"
	"trxmining/internal/infrastructure/database"
	"trxmining/internal/infrastructure/mq"
	"trxmining/internal/job"
	"trxmining/internal/repository"
	"trxmining/pkg/idgen"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	machineID := flag.Int64("machine-id", 1, "snowflake machine id")
	flag.Parse()

	cfg := config.LoadConfig(*configPath)
	idgen.Init(*machineID)

	database.InitMySQL()
	cache.InitRedis()
	mq.InitKafka()
	defer mq.Close()

	h := handler.NewHandler(database.DB, cache.RDB, cfg)
	router := handler.SetupRouter(h)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outboxRepo := repository.NewOutboxRepository(database.DB)
	job.NewOutboxSender(outboxRepo, 2*time.Second, cfg.Business.OutboxMaxRetryCount).Start(ctx)
	job.NewMiningSweep(h.Purchases(), time.Duration(cfg.Business.SweepIntervalSec)*time.Second).Start(ctx)
	h.Limiter.StartJanitor(ctx, 5*time.Minute)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("[Server] listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[Server] listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("[Server] shutting down")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Server] shutdown error: %v", err)
	}
	log.Println("[Server] stopped")
}
