// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package container_test

import (
	"sync"
	"testing"

	"github.com/Azure-Samples/MqttApplicationSamples/internal/container"
	"github.com/stretchr/testify/require"
)

func TestSyncMapLoadAndDeleteOnce(t *testing.T) {
	m := container.NewSyncMap[string, int]()
	m.Store("a", 1)

	var wg sync.WaitGroup
	var mu sync.Mutex
	hits := 0
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := m.LoadAndDelete("a"); ok {
				mu.Lock()
				hits++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, hits)
	require.Zero(t, m.Len())
}

func TestRefCount(t *testing.T) {
	r := container.NewRefCount[string]()

	require.True(t, r.Acquire("topic"))
	require.False(t, r.Acquire("topic"))
	require.Equal(t, 2, r.Count("topic"))

	require.False(t, r.Release("topic"))
	require.True(t, r.Release("topic"))
	require.Zero(t, r.Count("topic"))

	require.False(t, r.Release("unknown"))
}
