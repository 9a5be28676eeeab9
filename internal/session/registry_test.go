package session

import (
	"testing"

	"github.com/GriffinCanCode/conscope/internal/console"
	"github.com/GriffinCanCode/conscope/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry(
		func() console.Capability { return newFakeCapability() },
		testCadence(),
		logging.NewNop(),
		nil,
	)
	t.Cleanup(r.CloseAll)
	return r
}

func TestRegistryCreateAndGet(t *testing.T) {
	r := newTestRegistry(t)

	s := r.Create(nil)
	got, ok := r.Get(s.ID.String())
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = r.Get("sess_missing")
	assert.False(t, ok)
}

func TestRegistryList(t *testing.T) {
	r := newTestRegistry(t)

	a := r.Create(nil)
	b := r.Create(nil)

	infos := r.List()
	require.Len(t, infos, 2)

	ids := map[string]bool{}
	for _, info := range infos {
		ids[info.ID] = true
		assert.True(t, info.Active)
	}
	assert.True(t, ids[a.ID.String()])
	assert.True(t, ids[b.ID.String()])
}

func TestRegistryDestroy(t *testing.T) {
	r := newTestRegistry(t)

	s := r.Create(nil)
	require.NoError(t, r.Destroy(s.ID.String()))

	assert.True(t, s.Stopped())
	_, ok := r.Get(s.ID.String())
	assert.False(t, ok)

	assert.Error(t, r.Destroy(s.ID.String()), "double destroy must report not found")
}

func TestRegistryCadenceOverride(t *testing.T) {
	r := newTestRegistry(t)

	// Nonsense override values fall back to defaults instead of producing
	// a spinning or never-polling worker.
	s := r.Create(&Cadence{Interval: -1, LineCount: 0})
	require.NotNil(t, s)
	assert.False(t, s.Stopped())
}
