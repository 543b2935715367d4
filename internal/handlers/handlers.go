// Package handlers implements the HTTP API: expense CRUD, categories,
// and email/password auth. Every handler runs inside Wrap, which owns
// the "any failure becomes a 500 plus a dead-letter publish" policy.
package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"time"

	"expense-api/internal/deadletter"
	"expense-api/internal/storage"

	"go.uber.org/zap"
)

// maxBodyCapture bounds how much of a request body is buffered for
// dead-letter payloads. Anything beyond it still streams to the handler.
const maxBodyCapture = 1 << 20

// ReceiptStore uploads receipt files and returns their public URL.
type ReceiptStore interface {
	Upload(key string, data io.Reader, contentType string) (string, error)
}

// FailureReporter publishes failed-request context to the dead-letter
// queue. Implementations never propagate their own failures.
type FailureReporter interface {
	Report(ctx context.Context, rec deadletter.Record)
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	db       *storage.DB
	receipts ReceiptStore
	reporter FailureReporter
	logger   *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *storage.DB, receipts ReceiptStore, reporter FailureReporter, logger *zap.Logger) *Handlers {
	return &Handlers{db: db, receipts: receipts, reporter: reporter, logger: logger}
}

// apiFunc is a handler that surfaces unexpected failures as an error.
// Validation, ownership, and conflict outcomes are written directly and
// return nil; only exceptions reach the wrapper.
type apiFunc func(w http.ResponseWriter, r *http.Request) error

// Wrap applies the uniform failure policy around a handler: the request
// body is buffered for capture, panics are recovered, and any error is
// published to the dead-letter queue before the generic 500 goes out.
func (h *Handlers) Wrap(name string, fn apiFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		captured := captureBody(r)
		start := time.Now()

		var err error
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					err = fmt.Errorf("panic: %v", rec)
				}
			}()
			err = fn(w, r)
		}()

		if err != nil {
			h.logger.Error("handler failed",
				zap.String("handler", name),
				zap.Error(err),
				zap.Duration("elapsed", time.Since(start)))

			h.reporter.Report(r.Context(), deadletter.Record{
				Timestamp: time.Now().UTC().Format(time.RFC3339),
				Error:     err.Error(),
				Function:  name,
				Stack:     string(debug.Stack()),
				Payload: deadletter.Payload{
					Body:    captured.String(),
					Headers: r.Header,
					Query:   r.URL.Query(),
				},
			})

			http.Error(w, fmt.Sprintf("an error occurred: %v", err), http.StatusInternalServerError)
			return
		}

		h.logger.Info("handled request",
			zap.String("handler", name),
			zap.String("method", r.Method),
			zap.Duration("elapsed", time.Since(start)))
	}
}

// captureBody buffers up to maxBodyCapture bytes of the request body and
// splices the buffer back in front of the unread remainder, so handlers
// still see the full stream.
func captureBody(r *http.Request) *bytes.Buffer {
	buf := &bytes.Buffer{}
	if r.Body == nil {
		return buf
	}
	if _, err := io.Copy(buf, io.LimitReader(r.Body, maxBodyCapture)); err != nil {
		return buf
	}
	r.Body = replayBody{
		Reader: io.MultiReader(bytes.NewReader(buf.Bytes()), r.Body),
		Closer: r.Body,
	}
	return buf
}

type replayBody struct {
	io.Reader
	io.Closer
}
