package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagefallback/internal/imagegen"
)

func TestCollectorCountsAttempts(t *testing.T) {
	c := NewCollector("imagegen")

	c.ObserveAttempt("replicate", imagegen.OutcomeTimeout, 60*time.Second)
	c.ObserveAttempt("replicate", imagegen.OutcomeTimeout, 60*time.Second)
	c.ObserveAttempt("pollinations", imagegen.OutcomeSuccess, time.Second)
	c.ObserveCall(imagegen.OutcomeSuccess)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.attemptsTotal.WithLabelValues("replicate", "timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.attemptsTotal.WithLabelValues("pollinations", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.callsTotal.WithLabelValues("success")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.attemptDuration))
}

func TestCollectorHandlerExposesMetrics(t *testing.T) {
	c := NewCollector("imagegen")
	c.ObserveHTTP(http.MethodPost, "/v1/images/generate", http.StatusBadGateway, 250*time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `imagegen_http_requests_total{method="POST",route="/v1/images/generate",status="502"} 1`), body)
}

func TestCollectorsAreIndependent(t *testing.T) {
	a := NewCollector("imagegen")
	b := NewCollector("imagegen")
	a.ObserveCall(imagegen.OutcomeFailure)

	assert.Equal(t, 0.0, testutil.ToFloat64(b.callsTotal.WithLabelValues("failure")))
}
