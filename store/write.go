package store

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/tideline-io/metricsink/store/model"
)

const datetimeLayout = "2006-01-02 15:04:05"

// toDatetime converts the batch instant to local calendar time at second
// granularity. DATETIME columns only cover years 1000 through 9999; instants
// outside that range cannot be represented.
func toDatetime(ts time.Time) (string, error) {
	t := ts.Local()
	if y := t.Year(); y < 1000 || y > 9999 {
		return "", fmt.Errorf("%w: year %d outside DATETIME range", ErrTimeConversion, y)
	}
	return t.Format(datetimeLayout), nil
}

// Write persists one value list: one observation row per data source, each
// bound to its resolved surrogate id. rates carries the already
// rate-converted value for each data source.
//
// A data source whose identity cannot be resolved is skipped and the rest of
// the batch continues. A failed observation insert aborts the remaining
// batch: at that point the connection itself is suspect, so it is torn down
// and the next write reconnects from scratch.
func (s *Store) Write(ctx context.Context, ds []model.DataSource, vl *model.ValueList, rates []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(ctx, ds, vl, rates)
}

func (s *Store) writeLocked(ctx context.Context, ds []model.DataSource, vl *model.ValueList, rates []float64) error {
	if len(rates) != len(ds) {
		return fmt.Errorf("%w: %d rates for %d data sources", ErrWrite, len(rates), len(ds))
	}

	if err := s.connect(ctx); err != nil {
		log.Warn("unable to connect", zap.String("target", s.opts.Name), zap.Error(err))
		return err
	}

	when, err := toDatetime(vl.Time)
	if err != nil {
		log.Warn("unrepresentable batch timestamp",
			zap.String("target", s.opts.Name), zap.Time("time", vl.Time), zap.Error(err))
		return err
	}

	for i, d := range ds {
		id, err := s.resolver.resolve(ctx, s.conn, vl.Identity(d))
		if err != nil {
			// One unresolvable data source does not sink the batch.
			log.Warn("skipping data source",
				zap.String("target", s.opts.Name),
				zap.String("plugin", vl.Plugin), zap.String("type", vl.Type),
				zap.String("ds", d.Name), zap.Error(err))
			continue
		}

		// The value column is nullable; an unknown rate is stored as NULL.
		var value interface{}
		if !math.IsNaN(rates[i]) {
			value = rates[i]
		}

		if _, err := s.conn.insertData.ExecContext(ctx, id, when, value); err != nil {
			s.disconnect()
			return fmt.Errorf("%w: data insert: %v", ErrWrite, err)
		}
	}

	return nil
}
