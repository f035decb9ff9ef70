package journal

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/mailboost/mailboost/dto"
	"github.com/mailboost/mailboost/interfaces"
	"github.com/mailboost/mailboost/internal/tracing"
)

// fileJournal appends one JSON line per order attempt. The file is the
// reconciliation trail for orders the panel may have lost: the pipeline
// never retries, a human replays from here.
type fileJournal struct {
	path string
	mu   sync.Mutex
}

// NewFileJournal returns a journal writing to path, or a no-op journal when
// path is empty.
func NewFileJournal(path string) interfaces.OrderJournal {
	if path == "" {
		return &noopJournal{}
	}
	return &fileJournal{path: path}
}

func (j *fileJournal) Record(ctx context.Context, attempt dto.OrderAttempt) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "OrderJournal.Record")
	defer span.Finish()
	tracing.SetDefaultFileStoreSpanTags(ctx, span)
	span.SetTag("attempt_id", attempt.ID)

	line, err := json.Marshal(attempt)
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "failed to encode order attempt")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "failed to open order journal")
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "failed to append to order journal")
	}

	return nil
}

type noopJournal struct{}

func (j *noopJournal) Record(ctx context.Context, attempt dto.OrderAttempt) error {
	return nil
}
