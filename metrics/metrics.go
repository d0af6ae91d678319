package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	uploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fogcatalog",
			Name:      "image_uploads_total",
			Help:      "Image upload outcomes by result (success, error)",
		},
		[]string{"result"},
	)

	uploadRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fogcatalog",
			Name:      "image_upload_retries_total",
			Help:      "Total image upload retry attempts",
		},
	)

	renderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fogcatalog",
			Name:      "catalog_render_duration_seconds",
			Help:      "Catalog render duration by format (html, pdf, png)",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"format"},
	)

	pagesRendered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fogcatalog",
			Name:      "catalog_pages_rendered_total",
			Help:      "Total catalog pages rendered",
		},
	)
)

func init() {
	prometheus.MustRegister(uploadsTotal, uploadRetries, renderDuration, pagesRendered)
}

// Handler exposes the registry for the /metrics route
func Handler() http.Handler { return promhttp.Handler() }

func IncUpload(result string)     { uploadsTotal.WithLabelValues(result).Inc() }
func IncUploadRetry()             { uploadRetries.Inc() }
func AddPagesRendered(n int)      { pagesRendered.Add(float64(n)) }
func ObserveRender(format string, d time.Duration) {
	renderDuration.WithLabelValues(format).Observe(d.Seconds())
}
