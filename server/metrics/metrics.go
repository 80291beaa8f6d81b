// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics 收集 HTTP 與推論相關的 Prometheus 指標。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zintix-labs/lifespan/errs"
)

// Metrics 使用獨立的 Registry，同一個 process 可以建立多份（測試、多個 server）。
type Metrics struct {
	reg *prometheus.Registry

	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	assessments *prometheus.CounterVec
	scores      prometheus.Histogram
	failures    *prometheus.CounterVec
	limited     prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lifespan_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lifespan_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"route"}),
		assessments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lifespan_assessments_total",
			Help: "Completed quality assessments by label.",
		}, []string{"label"}),
		scores: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "lifespan_quality_score",
			Help:    "Distribution of crisp quality scores.",
			Buckets: prometheus.LinearBuckets(10, 10, 9),
		}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lifespan_inference_errors_total",
			Help: "Inference failures by error kind.",
		}, []string{"kind"}),
		limited: f.NewCounter(prometheus.CounterOpts{
			Name: "lifespan_http_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}),
	}
}

// ObserveRequest 記錄一次 HTTP 請求。route 應為路由樣板而非實際 path，避免 label 爆量。
func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) ObserveAssessment(label string, score float64) {
	if m == nil {
		return
	}
	m.assessments.WithLabelValues(label).Inc()
	m.scores.Observe(score)
}

// ObserveError 依錯誤類別計數；非本包錯誤記為 "other"。
func (m *Metrics) ObserveError(err error) {
	if m == nil || err == nil {
		return
	}
	kind := errs.KindOf(err).String()
	if kind == "" {
		kind = "other"
	}
	m.failures.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.limited.Inc()
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler 回傳 /metrics 的 http.Handler。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
