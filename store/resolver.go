package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/tideline-io/metricsink/identity"
)

// resolver maps metric identities to their surrogate ids, consulting the
// process-local cache first and falling back to a remote lookup-or-insert.
type resolver struct {
	cache *identifierCache
}

func newResolver() *resolver {
	return &resolver{cache: newIdentifierCache()}
}

// resolve returns the surrogate id for id. The cache lock is held from the
// cache check through the cache populate, so a resolution of a given
// identity fully completes before another goroutine can start a conflicting
// one; two goroutines can never race to insert the same identity remotely.
//
// Only positive results are cached. A failed resolution is retried on the
// next write instead of being remembered as a permanent miss.
func (r *resolver) resolve(ctx context.Context, c *connection, id identity.Identity) (int64, error) {
	key, err := id.Key()
	if err != nil {
		return 0, err
	}

	r.cache.Lock()
	defer r.cache.Unlock()

	if sid, ok := r.cache.lookup(key); ok {
		return sid, nil
	}
	log.Debug("identifier not found in cache", zap.String("identifier", key))

	sid, err := r.resolveRemote(ctx, c, id)
	if err != nil {
		return 0, err
	}
	_ = r.cache.insert(key, sid)
	return sid, nil
}

func (r *resolver) resolveRemote(ctx context.Context, c *connection, id identity.Identity) (int64, error) {
	ids, err := r.lookupRemote(ctx, c, id)
	if err != nil {
		return 0, fmt.Errorf("%w: identifier lookup: %v", ErrWrite, err)
	}

	switch len(ids) {
	case 0:
		return r.insertRemote(ctx, c, id)
	case 1:
		// The unique index makes a multi-row result impossible, and a
		// NULL id means the schema itself is off. Neither row is
		// authoritative, so surface the anomaly instead of guessing.
		if !ids[0].Valid {
			return 0, fmt.Errorf("%w: NULL identifier id", ErrDataIntegrity)
		}
		return ids[0].Int64, nil
	default:
		return 0, fmt.Errorf("%w: identifier lookup matched %d rows", ErrDataIntegrity, len(ids))
	}
}

func (r *resolver) lookupRemote(ctx context.Context, c *connection, id identity.Identity) ([]sql.NullInt64, error) {
	rows, err := c.lookupIdentifier.QueryContext(ctx,
		id.Host, id.Plugin, id.PluginInstance, id.Type, id.TypeInstance, id.DataSourceName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []sql.NullInt64
	for rows.Next() {
		var v sql.NullInt64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		ids = append(ids, v)
	}
	return ids, rows.Err()
}

func (r *resolver) insertRemote(ctx context.Context, c *connection, id identity.Identity) (int64, error) {
	res, err := c.insertIdentifier.ExecContext(ctx,
		id.Host, id.Plugin, id.PluginInstance, id.Type, id.TypeInstance,
		id.DataSourceName, id.DataSourceType)
	if err != nil {
		if isDuplicateErr(err) {
			// Another writer, possibly in another process, created this
			// identity between our lookup and insert. The row exists
			// now, so one more lookup settles it.
			log.Debug("identifier insert raced with a concurrent writer",
				zap.String("host", id.Host), zap.String("plugin", id.Plugin))
			ids, lookupErr := r.lookupRemote(ctx, c, id)
			if lookupErr == nil && len(ids) == 1 && ids[0].Valid {
				return ids[0].Int64, nil
			}
		}
		return 0, fmt.Errorf("%w: identifier insert: %v", ErrWrite, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: identifier insert: %v", ErrWrite, err)
	}
	if affected != 1 {
		return 0, fmt.Errorf("%w: identifier insert affected %d rows, expected 1", ErrWrite, affected)
	}

	sid, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: identifier insert: %v", ErrWrite, err)
	}
	log.Debug("new identifier", zap.Int64("id", sid),
		zap.String("host", id.Host), zap.String("plugin", id.Plugin),
		zap.String("type", id.Type), zap.String("ds", id.DataSourceName))
	return sid, nil
}
