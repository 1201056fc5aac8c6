package metadata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seliarn/nc2018team1/internal/eav"
)

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(flightDescriptor()))

	got, ok := r.Lookup(flightTypeID)
	require.True(t, ok)
	assert.Equal(t, "Flight", got.TypeName())
	assert.Len(t, r.Types(), 1)
}

func TestRegistryRejectsInvalidDescriptor(t *testing.T) {
	r := NewRegistry()
	d := NewDescriptor[flight]("Flight", 0, func(f *flight) *eav.Header { return &f.Header })
	err := r.Register(d)
	require.Error(t, err)
	assert.ErrorIs(t, err, eav.ErrMissingTypeMetadata)
}

func TestRegistryDuplicateObjectTypeID(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(flightDescriptor()))

	other := NewDescriptor[flight]("FlightCopy", flightTypeID, func(f *flight) *eav.Header { return &f.Header })
	err := r.Register(other)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "object-type id")
}

func TestRegistryCategoryConflict(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(flightDescriptor()))

	// attrNumber is scalar on Flight; declaring it as a date elsewhere
	// must be rejected.
	other := NewDescriptor[flight]("Airplane", flightTypeID+1, func(f *flight) *eav.Header { return &f.Header }).
		Date(attrNumber, "Commissioned",
			func(f *flight) *time.Time { return f.Departure },
			func(f *flight, v *time.Time) { f.Departure = v })
	err := r.Register(other)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "attribute id")
}

func TestRegistrySharedAttributeSameCategory(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(flightDescriptor()))

	other := NewDescriptor[flight]("Charter", flightTypeID+1, func(f *flight) *eav.Header { return &f.Header }).
		Value(attrNumber, "Number",
			func(f *flight) *string { return f.Number },
			func(f *flight, v *string) { f.Number = v })
	assert.NoError(t, r.Register(other))
}

func TestGlobalRegister(t *testing.T) {
	Reset()
	defer Reset()

	require.NoError(t, Register(flightDescriptor()))
	assert.Error(t, Register(flightDescriptor()))
}
