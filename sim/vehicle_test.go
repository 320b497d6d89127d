package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewVehicle_NegativeInputsClampedToZero(t *testing.T) {
	v := NewVehicle(-4, "A", -10, -50)

	assert.Equal(t, 0, v.ID)
	assert.Equal(t, 0.0, v.Position)
	assert.Equal(t, 0.0, v.Speed)
	assert.Equal(t, []string{"A"}, v.History)
}

func TestVehicle_Advance(t *testing.T) {
	v := NewVehicle(1, "A", 10, 50)

	assert.NoError(t, v.Advance(15))
	assert.Equal(t, 25.0, v.Position)

	// negative distances are rejected without moving the vehicle
	assert.ErrorIs(t, v.Advance(-1), ErrNegativeDistance)
	assert.Equal(t, 25.0, v.Position)
}

func TestVehicle_ChangeRoute_ResetsPositionAndRecordsHistory(t *testing.T) {
	v := NewVehicle(1, "A", 990, 50)

	assert.NoError(t, v.ChangeRoute("B", 0))

	assert.Equal(t, "B", v.Route)
	assert.Equal(t, 0.0, v.Position)
	assert.Equal(t, []string{"A", "B"}, v.History)
}

func TestVehicle_ChangeRoute_InvalidArgumentsAreNoOps(t *testing.T) {
	v := NewVehicle(1, "A", 100, 50)

	assert.ErrorIs(t, v.ChangeRoute("", 0), ErrEmptyRouteName)
	assert.ErrorIs(t, v.ChangeRoute("B", -5), ErrNegativePosition)

	assert.Equal(t, "A", v.Route)
	assert.Equal(t, 100.0, v.Position)
	assert.Equal(t, []string{"A"}, v.History)
}
