package metric

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	m := NewMetrics()

	m.RecordDuration(OpTransform, 50*time.Millisecond)
	m.RecordEntitiesIndexed("entity", 3)
	m.RecordEntitiesIndexed("entity", 0) // no-op
	m.RecordEntitiesSkipped("entity", 1)
	m.RecordLookup(true)
	m.RecordLookup(false)
	m.RecordStoreSize(2, 40)
	m.RecordRebuild()
	m.RecordAppend()
	m.RecordIngest("ok")

	assert.Equal(t, 3.0, testutil.ToFloat64(m.EntitiesIndexed.WithLabelValues("entity")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EntitiesSkipped.WithLabelValues("entity")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LookupsTotal.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LookupsTotal.WithLabelValues("miss")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RootsIndexed))
	assert.Equal(t, 40.0, testutil.ToFloat64(m.StoreItems))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rebuilds))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Appends))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IngestMessages.WithLabelValues("ok")))
}

func TestRegistryServesMetrics(t *testing.T) {
	r := NewRegistry()
	r.Metrics.RecordRebuild()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "jsonindex_store_rebuilds_total")
}
