package handler

import (
	"expvar"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/felixge/httpsnoop"
)

var httpRequestsInFlight = expvar.NewInt("gauge_http_requests_in_flight")
var httpRequestDurationSeconds = NewRequestHistogram()

// Upper bounds of the request duration histogram, in seconds
var durationBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5, 10, 30}

func init() {
	expvar.Publish("http_request_duration_seconds", httpRequestDurationSeconds)
}

// Metrics is a handler that collects performance metrics
func Metrics(h http.Handler, routeMatcher RouteMatcher) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := routeMatcher.Match(r)

		httpRequestsInFlight.Add(1)
		defer httpRequestsInFlight.Add(-1)

		respMetrics := httpsnoop.CaptureMetricsFn(w, func(ww http.ResponseWriter) {
			h.ServeHTTP(ww, r)
		})

		httpRequestDurationSeconds.Add(route, respMetrics.Code, respMetrics.Duration)
	})
}

type series struct {
	method string
	path   string
	code   int
}

type histogram struct {
	counts []uint64 // One per duration bucket, cumulative
	count  uint64
	sum    float64
}

// RequestHistogram is an expvar that tracks request durations per route and status code
// It is exported in the prometheus text format through tsweb
type RequestHistogram struct {
	mu     sync.Mutex
	series map[series]*histogram
}

// NewRequestHistogram returns an empty histogram
func NewRequestHistogram() *RequestHistogram {
	return &RequestHistogram{
		series: make(map[series]*histogram),
	}
}

// Add records a request duration
func (r *RequestHistogram) Add(route Route, code int, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := series{route.Method, route.Template, code}
	h, exists := r.series[key]
	if !exists {
		h = &histogram{counts: make([]uint64, len(durationBuckets))}
		r.series[key] = h
	}

	seconds := duration.Seconds()
	h.count++
	h.sum += seconds

	for i, le := range durationBuckets {
		if seconds <= le {
			h.counts[i]++
		}
	}
}

// WritePrometheus writes the histogram in the prometheus text format
func (r *RequestHistogram) WritePrometheus(w io.Writer, prefix string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(w, "# TYPE %s histogram\n", prefix)

	keys := make([]series, 0, len(r.series))
	for key := range r.series {
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].path != keys[j].path {
			return keys[i].path < keys[j].path
		}

		if keys[i].method != keys[j].method {
			return keys[i].method < keys[j].method
		}

		return keys[i].code < keys[j].code
	})

	for _, key := range keys {
		h := r.series[key]
		labels := fmt.Sprintf("method=%q,path=%q,code=%q", key.method, key.path, strconv.Itoa(key.code))

		for i, le := range durationBuckets {
			fmt.Fprintf(w, "%s_bucket{%s,le=%q} %d\n", prefix, labels, strconv.FormatFloat(le, 'g', -1, 64), h.counts[i])
		}

		fmt.Fprintf(w, "%s_bucket{%s,le=\"+Inf\"} %d\n", prefix, labels, h.count)
		fmt.Fprintf(w, "%s_count{%s} %d\n", prefix, labels, h.count)
		fmt.Fprintf(w, "%s_sum{%s} %v\n", prefix, labels, h.sum)
	}
}

// String implements expvar.Var, the JSON form only carries the total request count
func (r *RequestHistogram) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var total uint64
	for _, h := range r.series {
		total += h.count
	}

	return strconv.FormatUint(total, 10)
}
