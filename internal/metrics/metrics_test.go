package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordTurn(t *testing.T) {
	before := testutil.ToFloat64(turnsTotal.WithLabelValues("execute_tools"))
	RecordTurn("execute_tools", 150*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(turnsTotal.WithLabelValues("execute_tools")))
}

func TestRecordModelCall(t *testing.T) {
	okBefore := testutil.ToFloat64(modelCallsTotal.WithLabelValues("ollama", StatusSuccess))
	errBefore := testutil.ToFloat64(modelCallsTotal.WithLabelValues("ollama", StatusError))

	RecordModelCall("ollama", nil)
	RecordModelCall("ollama", errors.New("timeout"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(modelCallsTotal.WithLabelValues("ollama", StatusSuccess)))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(modelCallsTotal.WithLabelValues("ollama", StatusError)))
}

func TestRecordToolCallAndApproval(t *testing.T) {
	before := testutil.ToFloat64(toolCallsTotal.WithLabelValues("weather", StatusSkipped))
	RecordToolCall("weather", StatusSkipped, 0)
	assert.Equal(t, before+1, testutil.ToFloat64(toolCallsTotal.WithLabelValues("weather", StatusSkipped)))

	before = testutil.ToFloat64(approvalsTotal.WithLabelValues(ApprovalApproved))
	RecordApproval(ApprovalApproved)
	assert.Equal(t, before+1, testutil.ToFloat64(approvalsTotal.WithLabelValues(ApprovalApproved)))
}

func TestGauges(t *testing.T) {
	SetActiveSessions(7)
	SetPendingApprovals(2)

	assert.Equal(t, 7.0, testutil.ToFloat64(activeSessions))
	assert.Equal(t, 2.0, testutil.ToFloat64(pendingApprovals))
}

func TestHandlerExposesMetrics(t *testing.T) {
	Init()
	Init()

	RecordHTTPRequest("POST", "/chat", "200", 10*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "rumbo_http_requests_total")
}
