package service

import (
	"errors"

	"beachrent/internal/domain"
	"beachrent/internal/layout"
	"beachrent/internal/metrics"
	"beachrent/internal/models"

	"github.com/rs/zerolog"
)

// checkUmbrella rejects non-existent grid positions before anything else, whatever the actor's role.
func checkUmbrella(l *layout.Layout, umbrellaID int64) error {
	if umbrellaID <= 0 {
		return domain.ErrNotFound.WithMessage("umbrella not found")
	}
	if l.Disabled(int(umbrellaID)) {
		return domain.ErrInvalidUmbrella
	}
	return nil
}

// observe records the outcome of an operation. Storage failures are logged with full context and returned
// wrapped in ErrStorageFailure's code; business errors pass through unchanged.
func observe(logger *zerolog.Logger, op string, umbrellaID int64, side models.Side, err error) error {
	if err == nil {
		metrics.IncTransition(op, "ok")
		return nil
	}

	code := domain.CodeOf(err)
	metrics.IncTransition(op, code)

	var derr *domain.Error
	if errors.As(err, &derr) {
		return err
	}

	ev := logger.Error().Err(err).Str("op", op).Int64("umbrella_id", umbrellaID)
	if side != "" {
		ev = ev.Str("side", string(side))
	}
	ev.Msg("Storage failure")
	return &storageError{cause: err}
}

// storageError keeps the underlying cause for logs while matching domain.ErrStorageFailure.
type storageError struct {
	cause error
}

func (e *storageError) Error() string {
	return domain.ErrStorageFailure.Message
}

func (e *storageError) Unwrap() []error {
	return []error{domain.ErrStorageFailure, e.cause}
}

// anomalies collects ledger inconsistencies found inside a transaction; they are reported only after commit.
type anomalies []string

func (a *anomalies) check(res domain.CloseResult) {
	switch {
	case res.Open == 0:
		*a = append(*a, metrics.AnomalyMissingOpenEntry)
	case res.Open > 1:
		*a = append(*a, metrics.AnomalyMultipleOpenEntries)
	}
}

func (a anomalies) report(logger *zerolog.Logger, op string, umbrellaID int64, side models.Side) {
	for _, kind := range a {
		metrics.IncAnomaly(kind)
		logger.Warn().
			Str("op", op).
			Str("anomaly", kind).
			Int64("umbrella_id", umbrellaID).
			Str("side", string(side)).
			Msg("Ledger anomaly tolerated")
	}
}
