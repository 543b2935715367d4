// Package deadletter implements best-effort failure reporting: failed
// request context is published to a queue topic and later archived to
// blob storage by a separate consumer. Nothing here retries anything.
package deadletter

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Record is the message published for a failed request.
type Record struct {
	Timestamp string  `json:"timestamp"`
	Error     string  `json:"error"`
	Function  string  `json:"function"`
	Stack     string  `json:"stack"`
	Payload   Payload `json:"payload"`
}

// Payload captures as much of the original request as could be read.
type Payload struct {
	Body    string              `json:"body"`
	Headers map[string][]string `json:"headers"`
	Query   map[string][]string `json:"query"`
}

// MessageWriter is the subset of kafka.Writer the reporter needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Reporter publishes failure records to the dead-letter topic.
type Reporter struct {
	writer MessageWriter
	logger *zap.Logger
}

// NewReporter creates a Reporter over the given writer.
func NewReporter(writer MessageWriter, logger *zap.Logger) *Reporter {
	return &Reporter{writer: writer, logger: logger}
}

// NewWriter builds the kafka writer the server wires into the Reporter.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: 5 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}
}

// Report publishes the record. Failures are logged and swallowed: the
// caller's own error response must still reach the client, so nothing
// propagates out of here.
func (r *Reporter) Report(ctx context.Context, rec Record) {
	if rec.Timestamp == "" {
		rec.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		r.logger.Error("failed to marshal dead-letter record", zap.Error(err), zap.String("function", rec.Function))
		return
	}

	msg := kafka.Message{
		Key:   []byte(rec.Function),
		Value: data,
		Time:  time.Now(),
	}
	if err := r.writer.WriteMessages(ctx, msg); err != nil {
		r.logger.Error("failed to publish dead-letter record", zap.Error(err), zap.String("function", rec.Function))
		return
	}

	r.logger.Info("published dead-letter record", zap.String("function", rec.Function), zap.String("error", rec.Error))
}
