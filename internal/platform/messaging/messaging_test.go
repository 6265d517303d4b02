package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventValidate(t *testing.T) {
	assert.NoError(t, Event{Action: ActionCreate, PropertyID: "p1"}.Validate())
	assert.Error(t, Event{Action: ActionCreate}.Validate())
	assert.Error(t, Event{Action: "upsert", PropertyID: "p1"}.Validate())
}

func TestDecodeDelivery(t *testing.T) {
	ev, err := decodeDelivery([]byte(`{"action":"delete","property_id":"abc"}`))
	require.NoError(t, err)
	assert.Equal(t, Event{Action: ActionDelete, PropertyID: "abc"}, ev)

	_, err = decodeDelivery([]byte(`not json`))
	assert.Error(t, err)

	_, err = decodeDelivery([]byte(`{"action":"delete"}`))
	assert.Error(t, err)
}

func TestDirectPublisher(t *testing.T) {
	var got []Event
	p := NewDirectPublisher(func(_ context.Context, ev Event) error {
		got = append(got, ev)
		if ev.Action == ActionDelete {
			return errors.New("index down")
		}
		return nil
	})

	require.NoError(t, p.Publish(context.Background(), Event{Action: ActionUpdate, PropertyID: "p1"}))
	assert.Error(t, p.Publish(context.Background(), Event{Action: ActionDelete, PropertyID: "p1"}))
	assert.Error(t, p.Publish(context.Background(), Event{Action: "bogus", PropertyID: "p1"}))
	assert.Len(t, got, 2)
}
