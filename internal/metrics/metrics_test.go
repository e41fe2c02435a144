package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_RegisteredAndScrapable(t *testing.T) {
	ConnectionsOpened.Inc()
	MessagesDispatched.WithLabelValues("direct", "live").Inc()
	SessionsIssued.Inc()
	CallsInitiated.Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "whisper2_gateway_connections_opened_total")
	assert.Contains(t, body, "whisper2_messages_dispatched_total")
	assert.Contains(t, body, "whisper2_sessions_issued_total")
	assert.Contains(t, body, "whisper2_calls_initiated_total")
}
