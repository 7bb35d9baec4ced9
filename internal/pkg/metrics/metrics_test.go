package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDBPoolAcquireWaits_Name(t *testing.T) {
	assert.Equal(t, 1, testutil.CollectAndCount(DBPoolAcquireWaits, "incidenttracker_db_pool_empty_acquires"))
}

func TestDBPoolAcquireWaits_Lint(t *testing.T) {
	DBPoolAcquireWaits.Set(3)

	problems, err := testutil.CollectAndLint(DBPoolAcquireWaits)
	require.NoError(t, err)
	assert.Empty(t, problems)
	assert.Equal(t, 3.0, testutil.ToFloat64(DBPoolAcquireWaits))
}
