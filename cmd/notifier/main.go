// Command notifier consumes OTP events from RabbitMQ and appends each one to
// the OTP delivery log.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/iliyamo/profile-service/internal/config"
	"github.com/iliyamo/profile-service/internal/logging"
	"github.com/iliyamo/profile-service/internal/queue"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("prod").Error("load config", "err", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("otp consumer starting", "queue", cfg.OTPQueue, "log_path", cfg.OTPLogPath)
	err = queue.StartOTPConsumer(ctx, queue.ConsumerConfig{
		URL:     cfg.RabbitMQURL,
		Queue:   cfg.OTPQueue,
		LogPath: cfg.OTPLogPath,
	}, log)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("otp consumer stopped", "err", err)
		os.Exit(1)
	}
	log.Info("otp consumer stopped")
}
