package rate

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/simplelru"

	"github.com/tideline-io/metricsink/store/model"
)

const defaultCacheSize = 65536

// Wrap points of 32- and 64-bit hardware counters.
const (
	counter32Max = float64(1 << 32)
	counter64Max = float64(1 << 64)
)

type prevSample struct {
	time  time.Time
	value float64
}

// Converter turns raw measurement values into per-second rates. Gauges pass
// through untouched; counters and derives need the previous sample of the
// same data source, which is kept per identity in a bounded LRU. Evicting a
// stale series only costs one unknown rate on its next appearance.
type Converter struct {
	mu   sync.Mutex
	prev *simplelru.LRU
}

func NewConverter(size int) *Converter {
	if size <= 0 {
		size = defaultCacheSize
	}
	prev, _ := simplelru.NewLRU(size, nil)
	return &Converter{prev: prev}
}

// Rates converts vl.Values into one float per data source. An unknown rate
// (first sighting of a series, or time not advancing) is NaN, which the
// write path stores as NULL.
func (c *Converter) Rates(ds []model.DataSource, vl *model.ValueList) ([]float64, error) {
	if len(ds) != len(vl.Values) {
		return nil, fmt.Errorf("%d values for %d data sources", len(vl.Values), len(ds))
	}

	rates := make([]float64, len(ds))

	c.mu.Lock()
	defer c.mu.Unlock()

	for i, d := range ds {
		raw := vl.Values[i]

		switch d.Type {
		case model.DSTypeGauge:
			rates[i] = raw
			continue
		case model.DSTypeAbsolute:
			if vl.Interval <= 0 {
				rates[i] = math.NaN()
			} else {
				rates[i] = raw / vl.Interval.Seconds()
			}
			continue
		}

		key, err := vl.Identity(d).Key()
		if err != nil {
			rates[i] = math.NaN()
			continue
		}

		var prev prevSample
		if v, ok := c.prev.Get(key); ok {
			prev = v.(prevSample)
		}
		c.prev.Add(key, prevSample{time: vl.Time, value: raw})

		if prev.time.IsZero() || !vl.Time.After(prev.time) {
			rates[i] = math.NaN()
			continue
		}

		diff := raw - prev.value
		if d.Type == model.DSTypeCounter && diff < 0 {
			// The counter wrapped. Which wrap point applies depends on
			// the counter's width, inferred from the previous reading.
			if prev.value < counter32Max {
				diff += counter32Max
			} else {
				diff += counter64Max
			}
		}
		rates[i] = diff / vl.Time.Sub(prev.time).Seconds()
	}

	return rates, nil
}
