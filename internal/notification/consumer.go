package notification

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/fashopdev/fashop/internal/payment/domain"
	"github.com/fashopdev/fashop/pkg/idempotency"
	"github.com/fashopdev/fashop/pkg/tracing"
)

// Consumer turns payment outbox events into customer emails. Delivery from
// the outbox is at-least-once; the redis gate keeps redelivered messages
// from producing duplicate mail.
type Consumer struct {
	log    *slog.Logger
	reader *kafka.Reader
	sender EmailSender
	idem   *idempotency.Store
	tracer trace.Tracer
}

func NewConsumer(log *slog.Logger, brokers []string, topic, group string, sender EmailSender, idem *idempotency.Store) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
	return &Consumer{
		log:    log,
		reader: r,
		sender: sender,
		idem:   idem,
		tracer: otel.Tracer("notification-consumer"),
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}
		key := c.idem.Key(msg.Topic, msg.Partition, msg.Offset)
		seen, err := c.idem.Seen(ctx, key)
		if err != nil {
			c.log.Error("idempotency check failed", "err", err)
			continue
		}
		if seen {
			c.log.Info("duplicate message skipped", "key", key)
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
		msgCtx, span := c.tracer.Start(msgCtx, "ConsumePaymentEvent")

		c.handle(msgCtx, headerValue(msg.Headers, "event_type"), msg.Value)

		span.End()
		_ = c.reader.CommitMessages(ctx, msg)
	}
}

func (c *Consumer) handle(ctx context.Context, eventType string, payload []byte) {
	switch eventType {
	case domain.EventPaymentConfirmed:
		var ev domain.PaymentConfirmed
		if err := json.Unmarshal(payload, &ev); err != nil {
			c.log.Error("unmarshal failed", "event_type", eventType, "err", err)
			return
		}
		if err := c.sender.SendPaymentConfirmation(ctx, ev.OrderCode, ev.AmountVND, ev.Email); err != nil {
			c.log.Error("confirmation mail failed", "order_code", ev.OrderCode, "err", err)
			return
		}
		c.log.Info("confirmation mail sent", "order_code", ev.OrderCode)
	case domain.EventPaymentRejected:
		var ev domain.PaymentRejected
		if err := json.Unmarshal(payload, &ev); err != nil {
			c.log.Error("unmarshal failed", "event_type", eventType, "err", err)
			return
		}
		if err := c.sender.SendPaymentRejected(ctx, ev.OrderCode, ev.Reason, ev.Email); err != nil {
			c.log.Error("rejection mail failed", "order_code", ev.OrderCode, "err", err)
			return
		}
		c.log.Info("rejection mail sent", "order_code", ev.OrderCode)
	default:
		c.log.Warn("unknown event type skipped", "event_type", eventType)
	}
}

func headerValue(h []kafka.Header, key string) string {
	for _, hh := range h {
		if hh.Key == key {
			return string(hh.Value)
		}
	}
	return ""
}
