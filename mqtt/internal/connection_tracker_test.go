// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package internal_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Azure-Samples/MqttApplicationSamples/mqtt/internal"
	"github.com/stretchr/testify/require"
)

type client struct{ id int }

func TestConnectionTrackerWaitsForConnection(t *testing.T) {
	tracker := internal.NewConnectionTracker[*client]()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() {
		tracker.Attempt()
		_ = tracker.Connect(&client{1})
	}()

	for connCtx, c := range tracker.Client(ctx) {
		require.Equal(t, 1, c.id)
		require.NoError(t, connCtx.Err())
		break
	}
}

func TestConnectionTrackerRetriesOnNextConnection(t *testing.T) {
	tracker := internal.NewConnectionTracker[*client]()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first := tracker.Attempt()
	require.NoError(t, tracker.Connect(&client{1}))

	var seen []int
	for connCtx, c := range tracker.Client(ctx) {
		seen = append(seen, c.id)
		if c.id == 2 {
			break
		}

		// Drop the connection mid-request, then reconnect.
		tracker.Disconnect(first, errors.New("lost"))
		<-connCtx.Done()
		tracker.Attempt()
		require.NoError(t, tracker.Connect(&client{2}))
	}
	require.Equal(t, []int{1, 2}, seen)
}

func TestConnectionTrackerStaleDisconnect(t *testing.T) {
	tracker := internal.NewConnectionTracker[*client]()

	stale := tracker.Attempt()
	tracker.Attempt()
	require.NoError(t, tracker.Connect(&client{1}))

	tracker.Disconnect(stale, errors.New("stale"))
	require.NotNil(t, tracker.Current().Client)
	require.NoError(t, tracker.Current().Error)
}

func TestConnectionTrackerFailedBeforeConnect(t *testing.T) {
	tracker := internal.NewConnectionTracker[*client]()
	lost := errors.New("lost")

	attempt := tracker.Attempt()
	tracker.Disconnect(attempt, lost)
	require.ErrorIs(t, tracker.Connect(&client{1}), lost)
	require.Nil(t, tracker.Current().Client)
}

func TestBackgroundCancelsWithCause(t *testing.T) {
	stopped := errors.New("stopped")
	bg := internal.NewBackground(stopped)

	ctx, cancel := bg.With(context.Background())
	defer cancel()

	bg.Close()
	bg.Close()
	<-ctx.Done()
	require.ErrorIs(t, context.Cause(ctx), stopped)
}
