package metrics

import (
	"encoding/json"
	"math"
	"net/http"
	"sort"
	"time"

	dto "github.com/prometheus/client_model/go"
)

// Summary is the JSON response for the admin metrics endpoint.
type Summary struct {
	HTTP          httpSummary     `json:"http"`
	Documents     documentSummary `json:"documents"`
	Auth          authInfo        `json:"auth"`
	Sessions      sessionInfo     `json:"sessions"`
	Notifications notifyInfo      `json:"notifications"`
	DB            dbInfo          `json:"db"`
	Server        serverInfo      `json:"server"`
}

type httpSummary struct {
	TotalRequests float64 `json:"totalRequests"`
	ErrorRate     float64 `json:"errorRate"`
	P50Latency    float64 `json:"p50Latency"`
	P95Latency    float64 `json:"p95Latency"`
	P99Latency    float64 `json:"p99Latency"`
}

type documentSummary struct {
	TotalOps   float64 `json:"totalOps"`
	Errors     float64 `json:"errors"`
	P50Latency float64 `json:"p50Latency"`
	P95Latency float64 `json:"p95Latency"`
}

type authInfo struct {
	SignIns             float64 `json:"signIns"`
	SignInFailures      float64 `json:"signInFailures"`
	Registrations       float64 `json:"registrations"`
	RateLimitRejections float64 `json:"rateLimitRejections"`
}

type sessionInfo struct {
	Active float64 `json:"active"`
}

type notifyInfo struct {
	Sent   float64 `json:"sent"`
	Failed float64 `json:"failed"`
}

type serverInfo struct {
	StartTime     float64 `json:"startTime"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
}

type dbInfo struct {
	TotalConns    float64 `json:"totalConns"`
	IdleConns     float64 `json:"idleConns"`
	AcquiredConns float64 `json:"acquiredConns"`
	MaxConns      float64 `json:"maxConns"`
}

// Handler returns an http.HandlerFunc that serves live metrics in JSON format.
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := m.Summarize()
		if err != nil {
			http.Error(w, "failed to gather metrics", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache, no-store")
		_ = json.NewEncoder(w).Encode(summary)
	}
}

// Summarize gathers the registry into a Summary.
func (m *Metrics) Summarize() (Summary, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return Summary{}, err
	}

	fam := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		fam[f.GetName()] = f
	}

	start := gaugeValue(fam["dwh_server_start_time_seconds"])
	signIns := sumCounter(fam["dwh_auth_events_total"], label{"event", "sign_in"})

	return Summary{
		HTTP: httpSummary{
			TotalRequests: sumCounter(fam["dwh_http_requests_total"]),
			ErrorRate:     errorRate(fam["dwh_http_requests_total"]),
			P50Latency:    histogramPercentile(fam["dwh_http_request_duration_seconds"], 0.50),
			P95Latency:    histogramPercentile(fam["dwh_http_request_duration_seconds"], 0.95),
			P99Latency:    histogramPercentile(fam["dwh_http_request_duration_seconds"], 0.99),
		},
		Documents: documentSummary{
			TotalOps:   sumCounter(fam["dwh_document_ops_total"]),
			Errors:     sumCounter(fam["dwh_document_ops_total"], label{"result", "error"}),
			P50Latency: histogramPercentile(fam["dwh_document_op_duration_seconds"], 0.50),
			P95Latency: histogramPercentile(fam["dwh_document_op_duration_seconds"], 0.95),
		},
		Auth: authInfo{
			SignIns:             sumCounter(fam["dwh_auth_events_total"], label{"event", "sign_in"}, label{"outcome", "success"}),
			SignInFailures:      signIns - sumCounter(fam["dwh_auth_events_total"], label{"event", "sign_in"}, label{"outcome", "success"}),
			Registrations:       sumCounter(fam["dwh_auth_events_total"], label{"event", "register"}, label{"outcome", "success"}),
			RateLimitRejections: sumCounter(fam["dwh_ratelimit_rejections_total"]),
		},
		Sessions: sessionInfo{
			Active: gaugeValue(fam["dwh_active_sessions"]),
		},
		Notifications: notifyInfo{
			Sent:   sumCounter(fam["dwh_notifications_total"], label{"status", "sent"}),
			Failed: sumCounter(fam["dwh_notifications_total"], label{"status", "failed"}),
		},
		DB: dbInfo{
			TotalConns:    gaugeValue(fam["dwh_db_pool_total_conns"]),
			IdleConns:     gaugeValue(fam["dwh_db_pool_idle_conns"]),
			AcquiredConns: gaugeValue(fam["dwh_db_pool_acquired_conns"]),
			MaxConns:      gaugeValue(fam["dwh_db_pool_max_conns"]),
		},
		Server: serverInfo{
			StartTime:     start,
			UptimeSeconds: float64(time.Now().Unix()) - start,
		},
	}, nil
}

// --- Prometheus metric helpers ---

type label struct{ name, value string }

func matches(m *dto.Metric, want []label) bool {
	for _, l := range want {
		found := false
		for _, lp := range m.GetLabel() {
			if lp.GetName() == l.name && lp.GetValue() == l.value {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func sumCounter(f *dto.MetricFamily, want ...label) float64 {
	if f == nil {
		return 0
	}
	var total float64
	for _, m := range f.GetMetric() {
		if m.GetCounter() != nil && matches(m, want) {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func gaugeValue(f *dto.MetricFamily) float64 {
	if f == nil {
		return 0
	}
	ms := f.GetMetric()
	if len(ms) == 0 || ms[0].GetGauge() == nil {
		return 0
	}
	return ms[0].GetGauge().GetValue()
}

// errorRate is the share of requests answered with a 4xx or 5xx status.
func errorRate(f *dto.MetricFamily) float64 {
	if f == nil {
		return 0
	}
	var total, errors float64
	for _, m := range f.GetMetric() {
		if m.GetCounter() == nil {
			continue
		}
		v := m.GetCounter().GetValue()
		total += v
		for _, lp := range m.GetLabel() {
			if lp.GetName() == "status_code" {
				code := lp.GetValue()
				if len(code) > 0 && code[0] >= '4' {
					errors += v
				}
			}
		}
	}
	if total == 0 {
		return 0
	}
	return errors / total
}

// histogramPercentile computes a percentile from aggregated histogram buckets
// using linear interpolation.
func histogramPercentile(f *dto.MetricFamily, q float64, want ...label) float64 {
	if f == nil {
		return 0
	}

	type bucket struct {
		upperBound      float64
		cumulativeCount uint64
	}
	var totalCount uint64
	bucketMap := make(map[float64]uint64)

	for _, m := range f.GetMetric() {
		h := m.GetHistogram()
		if h == nil || !matches(m, want) {
			continue
		}
		totalCount += h.GetSampleCount()
		for _, b := range h.GetBucket() {
			bucketMap[b.GetUpperBound()] += b.GetCumulativeCount()
		}
	}

	if totalCount == 0 {
		return 0
	}

	buckets := make([]bucket, 0, len(bucketMap))
	for ub, count := range bucketMap {
		buckets = append(buckets, bucket{upperBound: ub, cumulativeCount: count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].upperBound < buckets[j].upperBound
	})

	rank := q * float64(totalCount)

	var prevBound float64
	var prevCount uint64
	for _, b := range buckets {
		if math.IsInf(b.upperBound, 1) {
			break
		}
		if float64(b.cumulativeCount) >= rank {
			bucketCount := b.cumulativeCount - prevCount
			if bucketCount == 0 {
				return b.upperBound
			}
			fraction := (rank - float64(prevCount)) / float64(bucketCount)
			return prevBound + fraction*(b.upperBound-prevBound)
		}
		prevBound = b.upperBound
		prevCount = b.cumulativeCount
	}

	// Past the last finite bucket.
	for i := len(buckets) - 1; i >= 0; i-- {
		if !math.IsInf(buckets[i].upperBound, 1) {
			return buckets[i].upperBound
		}
	}
	return 0
}
