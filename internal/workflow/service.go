// Package workflow is the composition root of the defect engine. Every
// mutating call follows the same shape: load the current entity, authorize
// the actor against the permission matrix, validate the change, persist it
// and record its audit diff inside one store transaction. Nothing here reads
// the caller's identity from ambient state; the resolved actor is a
// parameter on every call.
package workflow

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/garnizeh/snaglist/internal/blob"
	"github.com/garnizeh/snaglist/internal/core"
	"github.com/garnizeh/snaglist/internal/history"
	"github.com/garnizeh/snaglist/pkg/repository"
)

// Service orchestrates authorization, lifecycle validation and audit
// recording for every mutation. It is the only component that writes to the
// entity store.
type Service struct {
	store  repository.TxStore
	rec    *history.Recorder
	blobs  blob.Store
	logger *slog.Logger
}

func New(store repository.TxStore, rec *history.Recorder, blobs blob.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, rec: rec, blobs: blobs, logger: logger}
}

// storeErr marks a raw persistence failure: the unit of work was rolled back
// and the caller may retry.
func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", core.ErrStoreFailure, op, err)
}

const dateLayout = "2006-01-02"

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// validateDateRange checks both dates parse and end is not before start.
func validateDateRange(start, end *string) error {
	var from, to time.Time
	if start != nil {
		t, err := parseDate(*start)
		if err != nil {
			return fmt.Errorf("%w: bad start_date %q", core.ErrValidation, *start)
		}
		from = t
	}
	if end != nil {
		t, err := parseDate(*end)
		if err != nil {
			return fmt.Errorf("%w: bad end_date %q", core.ErrValidation, *end)
		}
		to = t
	}
	if start != nil && end != nil && to.Before(from) {
		return fmt.Errorf("%w: end_date before start_date", core.ErrValidation)
	}
	return nil
}

func validateDueDate(due *string) error {
	if due == nil {
		return nil
	}
	if _, err := parseDate(*due); err != nil {
		return fmt.Errorf("%w: bad due_date %q", core.ErrValidation, *due)
	}
	return nil
}

// cleanup removes blobs after their rows were committed away. Failures are
// logged, not surfaced: the audited state is already consistent.
func (s *Service) cleanupBlobs(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.logger.Error("orphan blob cleanup failed", slog.String("key", key), slog.Any("err", err))
		}
	}
}
