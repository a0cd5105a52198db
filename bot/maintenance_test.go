package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AvaProtocol/ercx-bot/core/session"
	"github.com/AvaProtocol/ercx-bot/core/testutil"
)

func TestMaintainUpdatesSessionGauge(t *testing.T) {
	db := testutil.TestMustDB(t)

	b := newTestBot()
	b.db = db
	b.sessions = session.NewBadgerStore(db)

	for _, id := range []int64{1, 2, 3} {
		_, err := b.sessions.GetOrCreate(context.Background(), id)
		require.NoError(t, err)
	}

	b.maintain()

	families, err := b.registry.Gather()
	require.NoError(t, err)

	var sessions float64
	for _, f := range families {
		if f.GetName() == "ercx_bot_sessions" {
			sessions = f.GetMetric()[0].GetGauge().GetValue()
		}
	}
	assert.Equal(t, float64(3), sessions)
}
