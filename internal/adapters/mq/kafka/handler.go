package kafka

import (
	"context"
	"errors"
	"fmt"

	service "github.com/okian/bulletin/internal/app"
	"github.com/okian/bulletin/internal/domain/model"
	"github.com/okian/bulletin/internal/domain/ranking"
)

// ViewRecorder accepts decoded view events.
type ViewRecorder interface {
	RecordView(ctx context.Context, e model.ViewEvent, source string) (bool, error)
}

// ViewHandler decodes ViewEvent JSON and hands it to rec. A full queue is
// retried; malformed or invalid events are skipped.
func ViewHandler(rec ViewRecorder) MessageHandler {
	return func(ctx context.Context, _, value []byte) error {
		e, err := DecodeJSON[model.ViewEvent](value)
		if err != nil {
			return err
		}
		// Same normalisation as POST /api/views; unknown names fail Validate later.
		if c, err := ranking.ParseCollection(string(e.Collection)); err == nil {
			e.Collection = c
		}
		if _, err := rec.RecordView(ctx, e, "kafka"); err != nil {
			if errors.Is(err, service.ErrBackpressure) {
				return fmt.Errorf("%w: %w", ErrRetryable, err)
			}
			return err
		}
		return nil
	}
}
