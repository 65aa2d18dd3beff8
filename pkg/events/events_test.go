package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderKeepsOrder(t *testing.T) {
	var r Recorder
	now := time.Now()

	require.NoError(t, r.Publish(context.Background(), PropertyMessage{Action: ActionCreate, PropertyID: 1, OccurredAt: now}))
	require.NoError(t, r.Publish(context.Background(), PropertyMessage{Action: ActionDelete, PropertyID: 1, OccurredAt: now}))

	msgs := r.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, ActionCreate, msgs[0].Action)
	assert.Equal(t, ActionDelete, msgs[1].Action)

	msgs[0].PropertyID = 99
	assert.Equal(t, uint(1), r.Messages()[0].PropertyID, "Messages returns a copy")
	assert.NoError(t, r.Close())
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), PropertyMessage{Action: ActionUpdate}))
	assert.NoError(t, p.Close())
}
