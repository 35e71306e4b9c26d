// Package metrics exposes Prometheus counters for HTTP traffic and forum activity.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// httpRequests counts finished requests by route template and status
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saladoverflow_http_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	// httpDuration tracks request latency
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "saladoverflow_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
	}, []string{"method", "route"})

	// Votes counts applied votes by target and resulting action
	Votes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saladoverflow_votes_total",
		Help: "Votes applied by target type and action",
	}, []string{"target", "action"})

	// Comments counts created comments by kind (answer, reply, comment)
	Comments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saladoverflow_comments_created_total",
		Help: "Comments created by kind",
	}, []string{"kind"})

	// AcceptToggles counts accepted-answer toggles by resulting state
	AcceptToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saladoverflow_accept_toggles_total",
		Help: "Accepted-answer toggles by resulting state",
	}, []string{"state"})

	// Bookmarks counts bookmark toggles by resulting state
	Bookmarks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saladoverflow_bookmark_toggles_total",
		Help: "Bookmark toggles by resulting state",
	}, []string{"state"})

	// Posts counts post lifecycle events
	Posts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saladoverflow_posts_total",
		Help: "Post lifecycle events by type and event",
	}, []string{"post_type", "event"})
)

// State maps a boolean outcome onto a label value.
func State(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

// Middleware records every request against its route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
