package main

import (
	"context"
	"net/smtp"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fashopdev/fashop/internal/notification"
	"github.com/fashopdev/fashop/pkg/idempotency"
	"github.com/fashopdev/fashop/pkg/logging"
	"github.com/fashopdev/fashop/pkg/shutdown"
	"github.com/fashopdev/fashop/pkg/tracing"
)

func main() {
	log := logging.New()
	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	kafkaAddr := env("KAFKA_ADDR", "localhost:9092")
	redisAddr := env("REDIS_ADDR", "localhost:6379")
	otlpURL := env("OTLP_URL", "http://localhost:4318")
	topic := env("NOTIFY_TOPIC", "payment.notifications")
	smtpAddr := env("SMTP_ADDR", "localhost:1025")
	smtpFrom := env("SMTP_FROM", "no-reply@fashop.vn")

	tp, err := tracing.Init(ctx, "notification-service", otlpURL, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(ctx) }()

	redisDB := redis.NewClient(&redis.Options{Addr: redisAddr})
	idem := idempotency.NewStore(redisDB, 24*time.Hour)

	var auth smtp.Auth
	if user := os.Getenv("SMTP_USER"); user != "" {
		auth = smtp.PlainAuth("", user, os.Getenv("SMTP_PASS"), smtpHost(smtpAddr))
	}
	sender := notification.NewSMTPSender(log, smtpAddr, smtpFrom, auth)

	consumer := notification.NewConsumer(log, []string{kafkaAddr}, topic, "notification-service", sender, idem)
	go func() {
		if err := consumer.Run(ctx); err != nil {
			log.Error("consumer stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("notification-service shutdown")
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func smtpHost(addr string) string {
	for i := range addr {
		if addr[i] == ':' {
			return addr[:i]
		}
	}
	return addr
}
