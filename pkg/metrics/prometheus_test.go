package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	r := New()
	_ = New() // second registration is a no-op

	r.RecordMemo("fetch", true)
	r.RecordMemo("fetch", false)
	r.RecordMemo("fetch", false)
	r.RecordRun("ok")
	r.RecordRows("AAPL", 250)

	assert.Equal(t, 1.0, testutil.ToFloat64(memoLookups.WithLabelValues("fetch", "hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(memoLookups.WithLabelValues("fetch", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(runsTotal.WithLabelValues("ok")))
	assert.Equal(t, 250.0, testutil.ToFloat64(fetchedRows.WithLabelValues("AAPL")))
}
