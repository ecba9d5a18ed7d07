package rate_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tideline-io/metricsink/rate"
	"github.com/tideline-io/metricsink/store/model"
)

func ifOctetsValueList(ts time.Time, values ...float64) *model.ValueList {
	return &model.ValueList{
		Host:           "h1",
		Plugin:         "interface",
		PluginInstance: "eth0",
		Type:           "if_octets",
		Time:           ts,
		Interval:       10 * time.Second,
		Values:         values,
	}
}

func TestGaugePassesThrough(t *testing.T) {
	c := rate.NewConverter(0)
	ds := []model.DataSource{{Name: "value", Type: model.DSTypeGauge}}

	rates, err := c.Rates(ds, ifOctetsValueList(time.Now(), 0.75))
	require.NoError(t, err)
	require.Equal(t, []float64{0.75}, rates)
}

func TestCounterRate(t *testing.T) {
	c := rate.NewConverter(0)
	ds := []model.DataSource{{Name: "rx", Type: model.DSTypeCounter}}
	base := time.Now()

	// First sighting of a series has no previous sample to derive from.
	rates, err := c.Rates(ds, ifOctetsValueList(base, 1000))
	require.NoError(t, err)
	require.True(t, math.IsNaN(rates[0]))

	rates, err = c.Rates(ds, ifOctetsValueList(base.Add(10*time.Second), 2000))
	require.NoError(t, err)
	require.Equal(t, 100.0, rates[0])
}

func TestCounterWrap(t *testing.T) {
	c := rate.NewConverter(0)
	ds := []model.DataSource{{Name: "rx", Type: model.DSTypeCounter}}
	base := time.Now()

	_, err := c.Rates(ds, ifOctetsValueList(base, math.Pow(2, 32)-6))
	require.NoError(t, err)

	// 32-bit counter wrapped: 6 to the wrap point plus 4 past it.
	rates, err := c.Rates(ds, ifOctetsValueList(base.Add(10*time.Second), 4))
	require.NoError(t, err)
	require.Equal(t, 1.0, rates[0])
}

func TestDeriveAllowsNegative(t *testing.T) {
	c := rate.NewConverter(0)
	ds := []model.DataSource{{Name: "value", Type: model.DSTypeDerive}}
	base := time.Now()

	_, err := c.Rates(ds, ifOctetsValueList(base, 100))
	require.NoError(t, err)

	rates, err := c.Rates(ds, ifOctetsValueList(base.Add(10*time.Second), 50))
	require.NoError(t, err)
	require.Equal(t, -5.0, rates[0])
}

func TestAbsolute(t *testing.T) {
	c := rate.NewConverter(0)
	ds := []model.DataSource{{Name: "value", Type: model.DSTypeAbsolute}}

	rates, err := c.Rates(ds, ifOctetsValueList(time.Now(), 50))
	require.NoError(t, err)
	require.Equal(t, 5.0, rates[0])

	vl := ifOctetsValueList(time.Now(), 50)
	vl.Interval = 0
	rates, err = c.Rates(ds, vl)
	require.NoError(t, err)
	require.True(t, math.IsNaN(rates[0]))
}

func TestNonMonotonicTime(t *testing.T) {
	c := rate.NewConverter(0)
	ds := []model.DataSource{{Name: "rx", Type: model.DSTypeCounter}}
	base := time.Now()

	_, err := c.Rates(ds, ifOctetsValueList(base, 1000))
	require.NoError(t, err)

	rates, err := c.Rates(ds, ifOctetsValueList(base.Add(-10*time.Second), 2000))
	require.NoError(t, err)
	require.True(t, math.IsNaN(rates[0]))
}

func TestSeriesAreIndependent(t *testing.T) {
	c := rate.NewConverter(0)
	ds := []model.DataSource{{Name: "rx", Type: model.DSTypeCounter}}
	base := time.Now()

	_, err := c.Rates(ds, ifOctetsValueList(base, 1000))
	require.NoError(t, err)

	// Same data source name on a different host is a different series.
	other := ifOctetsValueList(base.Add(10*time.Second), 2000)
	other.Host = "h2"
	rates, err := c.Rates(ds, other)
	require.NoError(t, err)
	require.True(t, math.IsNaN(rates[0]))
}

func TestValueCountMismatch(t *testing.T) {
	c := rate.NewConverter(0)
	ds := []model.DataSource{
		{Name: "rx", Type: model.DSTypeCounter},
		{Name: "tx", Type: model.DSTypeCounter},
	}

	_, err := c.Rates(ds, ifOctetsValueList(time.Now(), 1000))
	require.Error(t, err)
}
