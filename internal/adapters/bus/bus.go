// Package bus carries award events between in-process components over a
// watermill gochannel pub/sub.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/okian/prscore/internal/domain/model"
	"github.com/okian/prscore/pkg/logger"
	"github.com/okian/prscore/pkg/metrics"
)

// TopicAwardCreated is published once per appended award.
const TopicAwardCreated = "award.created"

// AwardHandler consumes one award event. Handler errors are logged and the
// message is still acknowledged.
type AwardHandler func(ctx context.Context, rec model.AwardRecord) error

// Bus publishes and subscribes to award events.
type Bus struct {
	pubsub *gochannel.GoChannel
	log    logger.Logger
	buffer int64

	wg     sync.WaitGroup
	closed bool
	mu     sync.Mutex
}

// New creates an in-process bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		log:    logger.Get().Named("bus"),
		buffer: 1024,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.pubsub = gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: b.buffer,
	}, newLogAdapter(b.log))
	return b
}

// PublishAward emits rec on TopicAwardCreated.
func (b *Bus) PublishAward(ctx context.Context, rec model.AwardRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		metrics.RecordBusPublishFailure()
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("cl_id", rec.CLID)
	msg.Metadata.Set("rule", rec.Rule.String())
	msg.SetContext(ctx)

	if err := b.pubsub.Publish(TopicAwardCreated, msg); err != nil {
		metrics.RecordBusPublishFailure()
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}
	metrics.RecordBusPublished()
	return nil
}

// SubscribeAwards delivers award events to h until ctx is done or the bus
// is closed.
func (b *Bus) SubscribeAwards(ctx context.Context, h AwardHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}

	messages, err := b.pubsub.Subscribe(ctx, TopicAwardCreated)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribe, err)
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for msg := range messages {
			b.handle(msg, h)
		}
	}()
	return nil
}

func (b *Bus) handle(msg *message.Message, h AwardHandler) {
	defer msg.Ack()

	var rec model.AwardRecord
	if err := json.Unmarshal(msg.Payload, &rec); err != nil {
		b.log.Error(msg.Context(), "dropping undecodable award event",
			logger.String("message_id", msg.UUID), logger.Error(err))
		metrics.RecordErrorByComponent("bus", "decode")
		return
	}
	if err := h(msg.Context(), rec); err != nil {
		b.log.Warn(msg.Context(), "award event handler failed",
			logger.String("message_id", msg.UUID), logger.String("uid", rec.UID), logger.Error(err))
		metrics.RecordErrorByComponent("bus", "handler")
		return
	}
	metrics.RecordBusDelivered()
}

// Close stops the pub/sub and waits for subscriber loops to drain.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	err := b.pubsub.Close()
	b.wg.Wait()
	return err
}
