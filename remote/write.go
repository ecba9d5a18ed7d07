package remote

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/golang/snappy"
	jsoniter "github.com/json-iterator/go"
	"github.com/pingcap/log"
	"github.com/prometheus/prometheus/prompb"
	"go.uber.org/zap"

	"github.com/tideline-io/metricsink/sink"
	"github.com/tideline-io/metricsink/store/model"
)

// valueListPayload is the collectd write_http JSON shape: parallel arrays of
// values, data source types and names, plus the identity tuple. Time and
// interval are fractional epoch seconds.
type valueListPayload struct {
	Values         []float64 `json:"values"`
	DSTypes        []string  `json:"dstypes"`
	DSNames        []string  `json:"dsnames"`
	Time           float64   `json:"time"`
	Interval       float64   `json:"interval"`
	Host           string    `json:"host"`
	Plugin         string    `json:"plugin"`
	PluginInstance string    `json:"plugin_instance"`
	Type           string    `json:"type"`
	TypeInstance   string    `json:"type_instance"`
}

func (p *valueListPayload) valueList() (*model.ValueList, []model.DataSource, error) {
	if len(p.Values) == 0 {
		return nil, nil, fmt.Errorf("no values")
	}
	if len(p.DSNames) != len(p.Values) || len(p.DSTypes) != len(p.Values) {
		return nil, nil, fmt.Errorf("%d values, %d dsnames, %d dstypes", len(p.Values), len(p.DSNames), len(p.DSTypes))
	}
	if p.Host == "" || p.Plugin == "" || p.Type == "" {
		return nil, nil, fmt.Errorf("missing host, plugin or type")
	}

	ds := make([]model.DataSource, len(p.Values))
	for i := range p.Values {
		ds[i] = model.DataSource{Name: p.DSNames[i], Type: p.DSTypes[i]}
	}

	sec, frac := math.Modf(p.Time)
	vl := &model.ValueList{
		Host:           p.Host,
		Plugin:         p.Plugin,
		PluginInstance: p.PluginInstance,
		Type:           p.Type,
		TypeInstance:   p.TypeInstance,
		Time:           time.Unix(int64(sec), int64(frac*float64(time.Second))),
		Interval:       time.Duration(p.Interval * float64(time.Second)),
		Values:         p.Values,
	}
	return vl, ds, nil
}

// CollectdHandler accepts collectd write_http-style JSON: an array of value
// lists. Bodies may be snappy-compressed (Content-Encoding: snappy).
// Malformed entries are logged and skipped; the request only fails when the
// payload itself cannot be decoded or dispatching fails outright.
func CollectdHandler(registry *sink.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := readBody(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var payloads []valueListPayload
		if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(body, &payloads); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		now := time.Now()
		defer func() {
			log.Debug("collectd batch done", zap.Int("count", len(payloads)), zap.Duration("duration", time.Since(now)))
		}()

		dispatched := 0
		for i := range payloads {
			vl, ds, err := payloads[i].valueList()
			if err != nil {
				log.Warn("malformed value list, ignored", zap.Error(err))
				continue
			}
			if err := registry.Dispatch(r.Context(), ds, vl); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			dispatched++
		}

		if dispatched == 0 && len(payloads) > 0 {
			http.Error(w, "no valid value lists", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}
}

// PromWriteHandler accepts Prometheus remote write and bridges each sample
// onto the identifier schema: the host or instance label becomes the host,
// the job label the plugin, and the metric name the type instance. Values
// arrive already rate-converted, so every data source is a gauge.
func PromWriteHandler(registry *sink.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeWriteRequest(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		now := time.Now()
		defer func() {
			log.Debug("remote write done", zap.Int("count", len(req.Timeseries)), zap.Duration("duration", time.Since(now)))
		}()

		ds := []model.DataSource{{Name: "value", Type: model.DSTypeGauge}}
		for _, series := range req.Timeseries {
			vl := seriesValueList(series)
			if vl == nil {
				log.Warn("metric name not found, ignored", zap.Any("timeseries", series))
				continue
			}
			for _, sample := range series.Samples {
				if math.IsNaN(sample.Value) {
					continue
				}
				vl.Time = time.Unix(sample.Timestamp/1000, (sample.Timestamp%1000)*int64(time.Millisecond))
				vl.Values = []float64{sample.Value}
				if err := registry.Dispatch(r.Context(), ds, vl); err != nil {
					http.Error(w, err.Error(), http.StatusInternalServerError)
					return
				}
			}
		}

		_, _ = w.Write([]byte("ok"))
	}
}

func seriesValueList(series *prompb.TimeSeries) *model.ValueList {
	vl := &model.ValueList{Host: "unknown", Plugin: "prometheus", Type: model.DSTypeGauge}
	for _, label := range series.Labels {
		switch label.Name {
		case "__name__":
			vl.TypeInstance = label.Value
		case "host", "instance":
			vl.Host = label.Value
		case "job":
			vl.Plugin = label.Value
		}
	}
	if vl.TypeInstance == "" {
		return nil
	}
	return vl
}

func decodeWriteRequest(r io.Reader) (*prompb.WriteRequest, error) {
	compressed, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	reqBuf, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, err
	}

	req := &prompb.WriteRequest{}
	if err = req.Unmarshal(reqBuf); err != nil {
		return nil, err
	}

	return req, nil
}

func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if r.Header.Get("Content-Encoding") == "snappy" {
		return snappy.Decode(nil, body)
	}
	return body, nil
}
