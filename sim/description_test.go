package sim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDescription = `
routes:
  - name: A
    length: 1000
    speed_limit: 90
    lights:
      - position: 400
        durations: {red: 30, green: 20, amber: 5}
      - duration: 10
        state: green
  - name: B
    length: 500
    speed_limit: 50
  - name: C
    length: 800
    speed_limit: 70
intersections:
  - source: A
    destinations: [B, C]
vehicles:
  - id: 1
    route: A
    position: 10
    speed: 60
  - id: 2
    route: B
`

func TestParseNetworkDescription(t *testing.T) {
	desc, err := ParseNetworkDescription([]byte(sampleDescription))
	require.NoError(t, err)

	require.Len(t, desc.Routes, 3)
	assert.Equal(t, "A", desc.Routes[0].Name)
	assert.Equal(t, 90.0, desc.Routes[0].SpeedLimit)
	require.Len(t, desc.Routes[0].Lights, 2)
	require.NotNil(t, desc.Routes[0].Lights[0].Position)
	assert.Equal(t, 400.0, *desc.Routes[0].Lights[0].Position)
	assert.Nil(t, desc.Routes[0].Lights[1].Position)
	assert.Equal(t, []string{"B", "C"}, desc.Intersections[0].Destinations)
	require.Len(t, desc.Vehicles, 2)
	assert.Nil(t, desc.Vehicles[1].Speed)
}

func TestParseNetworkDescription_RejectsUnknownKeys(t *testing.T) {
	_, err := ParseNetworkDescription([]byte("routes:\n  - name: A\n    lenght: 100\n"))

	assert.Error(t, err)
}

func TestParseNetworkDescription_AcceptsJSON(t *testing.T) {
	data := `{"routes": [{"name": "A", "length": 1000, "speed_limit": 90}],
	          "vehicles": [{"id": 3, "route": "A", "position": 5, "speed": 40}]}`

	desc, err := ParseNetworkDescription([]byte(data))

	require.NoError(t, err)
	require.Len(t, desc.Routes, 1)
	require.Len(t, desc.Vehicles, 1)
	assert.Equal(t, 40.0, *desc.Vehicles[0].Speed)
}

func TestNetworkDescription_Build(t *testing.T) {
	desc, err := ParseNetworkDescription([]byte(sampleDescription))
	require.NoError(t, err)

	net, problems := desc.Build(NetworkConfig{Kernel: deterministicKernel()})

	assert.Empty(t, problems)
	assert.Len(t, net.Routes(), 3)
	assert.Equal(t, []string{"B", "C"}, net.Destinations("A"))

	lights := net.Route("A").Lights()
	require.Len(t, lights, 2)
	assert.Equal(t, 400.0, lights[0].Position)
	assert.Equal(t, LightRed, lights[0].Light.State())
	assert.Equal(t, 30.0, lights[0].Light.Duration(LightRed))
	assert.Equal(t, 1000.0, lights[1].Position, "defaults to the route end")
	assert.Equal(t, LightGreen, lights[1].Light.State())

	v1 := net.Route("A").Vehicle(1)
	require.NotNil(t, v1)
	assert.Equal(t, 10.0, v1.Position)
	assert.Equal(t, 60.0, v1.Speed)
	v2 := net.Route("B").Vehicle(2)
	require.NotNil(t, v2)
	assert.Equal(t, DefaultVehicleSpeed, v2.Speed)
}

func TestNetworkDescription_Build_SkipsMalformedEntries(t *testing.T) {
	pos := 2000.0
	desc := &NetworkDescription{
		Routes: []RouteSpec{
			{Name: "A", Length: 1000, SpeedLimit: 90, Lights: []LightSpec{
				{Position: &pos, Duration: 5},
				{Duration: 5, State: "purple"},
				{Duration: 5, Durations: map[string]float64{"red": 5}},
			}},
			{Name: "", Length: 100, SpeedLimit: 50},
			{Name: "A", Length: 100, SpeedLimit: 50},
			{Name: "B", Length: -3, SpeedLimit: 0},
		},
		Intersections: []IntersectionSpec{{Source: "A", Destinations: []string{"B", "nowhere"}}},
		Vehicles: []VehicleSpec{
			{ID: 1, Route: "A"},
			{ID: 1, Route: "A"},
			{ID: 2, Route: "A", Position: 5000},
			{ID: 3, Route: "nowhere"},
		},
	}

	net, problems := desc.Build(NetworkConfig{Kernel: deterministicKernel()})

	// 3 lights, 2 routes, 1 intersection, 3 vehicles
	assert.Len(t, problems, 9)
	assert.Len(t, net.Routes(), 2)
	assert.Equal(t, DefaultRouteLength, net.Route("B").Length())
	assert.Equal(t, DefaultSpeedLimit, net.Route("B").SpeedLimit())
	assert.Empty(t, net.Route("A").Lights())
	assert.Equal(t, []string{"B"}, net.Destinations("A"))
	assert.Equal(t, 1, net.TotalVehicleCount())
}

func TestLightSpec_Cycle_OrangeAlias(t *testing.T) {
	cycle, err := LightSpec{Durations: map[string]float64{"red": 4, "green": 6, "orange": 2}}.Cycle()
	require.NoError(t, err)

	light := NewTrafficLight(cycle)
	assert.Equal(t, 2.0, light.Duration(LightAmber))
	assert.Equal(t, 12.0, light.TotalCycleDuration())
}

func TestLoadNetworkDescription(t *testing.T) {
	path := filepath.Join(t.TempDir(), "network.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDescription), 0o644))

	desc, err := LoadNetworkDescription(path)

	require.NoError(t, err)
	assert.Len(t, desc.Routes, 3)
}

func TestLoadNetworkDescription_MissingFile(t *testing.T) {
	_, err := LoadNetworkDescription(filepath.Join(t.TempDir(), "absent.yaml"))

	assert.Error(t, err)
}
