package identity

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// MaxFieldLen matches the width of the identifier table columns.
	MaxFieldLen = 128

	// KeyDelimiter separates the fields of a cache key. Fields must not
	// contain it, otherwise two different identities could render to the
	// same key.
	KeyDelimiter = "/"
)

// ErrFormat is returned when an identity field cannot be rendered into a
// cache key or stored in the identifier table.
var ErrFormat = errors.New("malformed identity")

// Identity names one data source of one measurement. The first six fields
// identify the series; DataSourceType is stored on first insertion but takes
// no part in lookups.
type Identity struct {
	Host           string
	Plugin         string
	PluginInstance string
	Type           string
	TypeInstance   string
	DataSourceName string
	DataSourceType string
}

// Key renders the identity into its cache-key form: the six identifying
// fields joined by KeyDelimiter. Two identities produce the same key exactly
// when those six fields are byte-equal.
func (id Identity) Key() (string, error) {
	fields := [...]string{
		id.Host,
		id.Plugin,
		id.PluginInstance,
		id.Type,
		id.TypeInstance,
		id.DataSourceName,
	}
	for _, f := range fields {
		if len(f) > MaxFieldLen {
			return "", fmt.Errorf("%w: field %q exceeds %d bytes", ErrFormat, f, MaxFieldLen)
		}
		if strings.Contains(f, KeyDelimiter) {
			return "", fmt.Errorf("%w: field %q contains %q", ErrFormat, f, KeyDelimiter)
		}
	}
	if len(id.DataSourceType) > MaxFieldLen {
		return "", fmt.Errorf("%w: data source type %q exceeds %d bytes", ErrFormat, id.DataSourceType, MaxFieldLen)
	}
	return strings.Join(fields[:], KeyDelimiter), nil
}
