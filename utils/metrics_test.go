package utils

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	RegisterMetrics()
	RegisterMetrics()

	before := testutil.ToFloat64(bookingOutcomes.WithLabelValues("accept", "confirmed"))
	IncBooking("accept", "confirmed")
	assert.Equal(t, before+1, testutil.ToFloat64(bookingOutcomes.WithLabelValues("accept", "confirmed")))

	errsBefore := testutil.ToFloat64(geoIndexOps.WithLabelValues("add", "error"))
	IncGeoIndex("add", errors.New("down"))
	assert.Equal(t, errsBefore+1, testutil.ToFloat64(geoIndexOps.WithLabelValues("add", "error")))

	assert.NotPanics(t, func() {
		ObserveSearchResults(3)
	})
}
