package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Auth outcomes recorded by AuthAttempts.
const (
	AuthSignupOK        = "signup_ok"
	AuthSignupDuplicate = "signup_duplicate"
	AuthSigninOK        = "signin_ok"
	AuthSigninFailed    = "signin_failed"
)

var (
	// AuthAttempts counts signup and signin attempts by outcome.
	AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "noticeboard_auth_attempts_total",
		Help: "Total signup and signin attempts by outcome",
	}, []string{"outcome"})

	// NotificationsCreated counts notifications emitted for new posts.
	NotificationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "noticeboard_notifications_created_total",
		Help: "Total number of notifications created",
	})

	// NotificationsMarkedSeen counts notifications flipped to seen.
	NotificationsMarkedSeen = promauto.NewCounter(prometheus.CounterOpts{
		Name: "noticeboard_notifications_marked_seen_total",
		Help: "Total number of notifications marked as seen",
	})

	// BlobUploads counts blob store uploads by result.
	BlobUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "noticeboard_blob_uploads_total",
		Help: "Total blob store uploads by result",
	}, []string{"result"})

	// RedisErrors counts Redis errors by operation.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "noticeboard_redis_errors_total",
		Help: "Total number of Redis errors by operation",
	}, []string{"operation"})
)
