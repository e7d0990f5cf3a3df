package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/course-entitlement/internal/storage"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordDecision("premium_active", true)
	m.RecordDecision("premium_active", true)
	m.RecordDecision("blocked", false)
	m.RecordCache(CacheHit)
	m.RecordCache(CacheMiss)
	m.RecordCache(CacheMiss)
	m.ObserveLoad(10*time.Millisecond, nil)
	m.ObserveLoad(time.Second, errors.New("boom"))
	m.ObserveLoad(time.Millisecond, fmt.Errorf("repository.LoadCourse: %w", storage.ErrNotFound))
	m.RecordInvalidation("user")
	m.SetBreakerOpen("store", true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.decisions.WithLabelValues("premium_active", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decisions.WithLabelValues("blocked", "false")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheResults.WithLabelValues(CacheMiss)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.invalidations.WithLabelValues("user")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.breakerState.WithLabelValues("store")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.loadDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(m.loadDuration.WithLabelValues("not_found").(prometheus.Histogram)))

	m.SetBreakerOpen("store", false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.breakerState.WithLabelValues("store")))
}

func TestNew_DoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
