package ai

import (
	"github.com/pkoukk/tiktoken-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	completionRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "garden_completion_requests_total",
			Help: "Total number of requests to completion backends.",
		},
		[]string{"backend", "model", "status"},
	)
	completionRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "garden_completion_request_duration_seconds",
			Help:    "Histogram of completion request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "model"},
	)
	completionPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "garden_completion_prompt_tokens",
			Help:    "Histogram of estimated prompt token counts.",
			Buckets: prometheus.LinearBuckets(100, 100, 20),
		},
		[]string{"backend"},
	)
)

// observePromptSize records an estimated token count for the prompt. The
// estimate uses cl100k_base regardless of backend; it only feeds a
// histogram, so exactness does not matter.
func observePromptSize(backend Backend, prompt string) {
	tke, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return
	}
	completionPromptTokens.WithLabelValues(string(backend)).
		Observe(float64(len(tke.Encode(prompt, nil, nil))))
}
