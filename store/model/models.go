package model

import (
	"time"

	"github.com/tideline-io/metricsink/identity"
)

// Data source types, matching the values stored in the
// identifier.data_source_type column.
const (
	DSTypeGauge    = "gauge"
	DSTypeCounter  = "counter"
	DSTypeDerive   = "derive"
	DSTypeAbsolute = "absolute"
)

// DataSource describes one field of a value list's type.
type DataSource struct {
	Name string
	Type string
}

// ValueList is one incoming measurement batch: an identity tuple, a
// timestamp, and one raw value per data source of its type.
type ValueList struct {
	Host           string
	Plugin         string
	PluginInstance string
	Type           string
	TypeInstance   string

	Time     time.Time
	Interval time.Duration
	Values   []float64
}

// Identity assembles the full identity of data source d within this batch.
func (vl *ValueList) Identity(d DataSource) identity.Identity {
	return identity.Identity{
		Host:           vl.Host,
		Plugin:         vl.Plugin,
		PluginInstance: vl.PluginInstance,
		Type:           vl.Type,
		TypeInstance:   vl.TypeInstance,
		DataSourceName: d.Name,
		DataSourceType: d.Type,
	}
}
