package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordUpstreamError(t *testing.T) {
	before := testutil.ToFloat64(UpstreamErrors.WithLabelValues("gateway:8001", "unreachable"))

	RecordUpstreamError("gateway:8001", "unreachable")
	RecordUpstreamError("gateway:8001", "unreachable")

	after := testutil.ToFloat64(UpstreamErrors.WithLabelValues("gateway:8001", "unreachable"))
	assert.Equal(t, before+2, after)
}

func TestRecordDegraded(t *testing.T) {
	before := testutil.ToFloat64(AggregateDegraded.WithLabelValues("teams"))

	RecordDegraded("teams")

	assert.Equal(t, before+1, testutil.ToFloat64(AggregateDegraded.WithLabelValues("teams")))
}

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/dashboard", "200"))

	RecordHTTPRequest("GET", "/api/dashboard", "200", 15*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/dashboard", "200")))
}
