// Package events mirrors hub events onto a Kafka topic for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"bin_monitoring/internal/hub"
	"bin_monitoring/internal/logger"
	"bin_monitoring/internal/models"

	"github.com/segmentio/kafka-go"
)

const writeTimeout = 5 * time.Second

// MessageWriter is the part of *kafka.Writer the forwarder uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
}

// Forwarder is a hub subscriber that writes each event keyed by bin id, so one bin's events stay ordered
// within a partition. Like any subscriber it misses events when it falls behind.
type Forwarder struct {
	hub    *hub.Hub
	writer MessageWriter
	log    *logger.Logger
}

func NewForwarder(h *hub.Hub, w MessageWriter, log *logger.Logger) *Forwarder {
	if log == nil {
		log = logger.Nop()
	}
	return &Forwarder{hub: h, writer: w, log: log}
}

// Run forwards events until ctx is done or the hub closes, then closes the writer.
func (f *Forwarder) Run(ctx context.Context) {
	sub := f.hub.Subscribe()
	defer f.hub.Unsubscribe(sub)
	defer func() {
		if err := f.writer.Close(); err != nil {
			f.log.Warnw("kafka_writer_close_failed", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			f.forward(ctx, ev)
		}
	}
}

func (f *Forwarder) forward(ctx context.Context, ev models.Event) {
	msg, err := toMessage(ev)
	if err != nil {
		f.log.Errorw("kafka_encode_failed", "event_id", ev.ID, "err", err)
		return
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := f.writer.WriteMessages(wctx, msg); err != nil {
		f.log.Warnw("kafka_write_failed", "event_id", ev.ID, "type", ev.Type, "bin_id", ev.BinID, "err", err)
	}
}

func toMessage(ev models.Event) (kafka.Message, error) {
	value, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatInt(ev.BinID, 10)),
		Value: value,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
			{Key: "event_id", Value: []byte(ev.ID)},
		},
	}, nil
}
