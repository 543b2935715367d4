package deadletter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the subset of kafka.Reader the archiver needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// ObjectStore is where archived messages end up.
type ObjectStore interface {
	Upload(key string, data io.Reader, contentType string) (string, error)
}

// Archiver drains the dead-letter topic and writes each message as an
// individual JSON object. Messages that fail to archive are logged and
// dropped; there is no retry.
type Archiver struct {
	reader MessageReader
	store  ObjectStore
	logger *zap.Logger
}

// NewArchiver creates an Archiver.
func NewArchiver(reader MessageReader, store ObjectStore, logger *zap.Logger) *Archiver {
	return &Archiver{reader: reader, store: store, logger: logger}
}

// NewReader builds the consumer-group reader the worker wires into the
// Archiver.
func NewReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
}

// Run consumes messages until the context is canceled.
func (a *Archiver) Run(ctx context.Context) error {
	for {
		msg, err := a.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			a.logger.Error("failed to read dead-letter message", zap.Error(err))
			continue
		}

		key := a.archiveKey(msg)
		if _, err := a.store.Upload(key, bytes.NewReader(msg.Value), "application/json"); err != nil {
			// Poison message: log it and move on.
			a.logger.Error("failed to archive dead-letter message",
				zap.Error(err),
				zap.String("key", key),
				zap.Int64("offset", msg.Offset))
			continue
		}

		a.logger.Info("archived dead-letter message", zap.String("key", key), zap.Int64("offset", msg.Offset))
	}
}

func (a *Archiver) archiveKey(msg kafka.Message) string {
	return fmt.Sprintf("%s/%s.json", msg.Time.UTC().Format("2006-01-02"), uuid.NewString())
}
