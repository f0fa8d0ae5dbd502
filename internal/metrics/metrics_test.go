package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRelationshipActionCounter(t *testing.T) {
	before := testutil.ToFloat64(relationshipActionsTotal.WithLabelValues(ActionAccept, StatusNoop))
	IncRelationshipAction(ActionAccept, StatusNoop)
	after := testutil.ToFloat64(relationshipActionsTotal.WithLabelValues(ActionAccept, StatusNoop))
	assert.Equal(t, before+1, after)
}

func TestDirectorySearchCounterMode(t *testing.T) {
	before := testutil.ToFloat64(directorySearchesTotal.WithLabelValues("fuzzy", StatusSuccess))
	IncDirectorySearch(true, StatusSuccess)
	assert.Equal(t, before+1, testutil.ToFloat64(directorySearchesTotal.WithLabelValues("fuzzy", StatusSuccess)))
}

func TestRecordHTTPRequestUnknownRoute(t *testing.T) {
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "unknown", "404"))
	RecordHTTPRequest("GET", "", 404, 5*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "unknown", "404")))
}

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register(nil)
		Register(nil)
	})
}
