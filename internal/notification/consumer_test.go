package notification

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fashopdev/fashop/internal/payment/domain"
)

type recordingSender struct {
	confirmations []string
	rejections    []string
}

func (r *recordingSender) SendPaymentConfirmation(_ context.Context, orderCode string, _ int64, _ string) error {
	r.confirmations = append(r.confirmations, orderCode)
	return nil
}

func (r *recordingSender) SendPaymentRejected(_ context.Context, orderCode, _, _ string) error {
	r.rejections = append(r.rejections, orderCode)
	return nil
}

func testConsumer(sender EmailSender) *Consumer {
	return &Consumer{log: slog.New(slog.DiscardHandler), sender: sender}
}

func TestHandleConfirmed(t *testing.T) {
	sender := &recordingSender{}
	c := testConsumer(sender)

	payload, _ := json.Marshal(domain.PaymentConfirmed{OrderCode: "FS-42", AmountVND: 500_000, Email: "khach@example.com"})
	c.handle(context.Background(), domain.EventPaymentConfirmed, payload)

	assert.Equal(t, []string{"FS-42"}, sender.confirmations)
	assert.Empty(t, sender.rejections)
}

func TestHandleRejected(t *testing.T) {
	sender := &recordingSender{}
	c := testConsumer(sender)

	payload, _ := json.Marshal(domain.PaymentRejected{OrderCode: "FS-42", Reason: "24", Email: "khach@example.com"})
	c.handle(context.Background(), domain.EventPaymentRejected, payload)

	assert.Equal(t, []string{"FS-42"}, sender.rejections)
}

func TestHandleUnknownEventIsSkipped(t *testing.T) {
	sender := &recordingSender{}
	c := testConsumer(sender)

	c.handle(context.Background(), "SomethingElse", []byte(`{}`))

	assert.Empty(t, sender.confirmations)
	assert.Empty(t, sender.rejections)
}

func TestHandleBadPayload(t *testing.T) {
	sender := &recordingSender{}
	c := testConsumer(sender)

	c.handle(context.Background(), domain.EventPaymentConfirmed, []byte(`not json`))

	assert.Empty(t, sender.confirmations)
}
