// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordFileServed(t *testing.T) {
	before := testutil.ToFloat64(MediaFilesServed.WithLabelValues("video/mp2t"))
	beforeBytes := testutil.ToFloat64(MediaBytesServed)

	RecordFileServed("video/mp2t", 188)

	assert.Equal(t, before+1, testutil.ToFloat64(MediaFilesServed.WithLabelValues("video/mp2t")))
	assert.Equal(t, beforeBytes+188, testutil.ToFloat64(MediaBytesServed))
}

func TestRecordFailure(t *testing.T) {
	before := testutil.ToFloat64(MediaRequestFailures.WithLabelValues(ReasonNotFound))
	RecordFailure(ReasonNotFound)
	assert.Equal(t, before+1, testutil.ToFloat64(MediaRequestFailures.WithLabelValues(ReasonNotFound)))
}

func TestRecordListing(t *testing.T) {
	RecordListing("cache")

	var m dto.Metric
	require.NoError(t, ListingRequests.WithLabelValues("cache").Write(&m))
	require.NotNil(t, m.Counter)
	assert.GreaterOrEqual(t, m.Counter.GetValue(), float64(1))
}
