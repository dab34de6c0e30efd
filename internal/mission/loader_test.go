package mission_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skylane/internal/domain"
	"skylane/internal/mission"
)

const sampleDoc = `{
  "primary_mission": {
    "drone_id": "alpha",
    "waypoints": [
      {"x": 0, "y": 0, "z": 10},
      {"x": 100, "y": 0, "z": 10},
      {"x": 100, "y": 100, "z": 10}
    ],
    "start_time": 800,
    "end_time": 810
  },
  "simulated_missions": [
    {
      "drone_id": "sim-1",
      "waypoints": [
        {"x": 100, "y": 0, "z": 10, "timestamp": 805}
      ]
    }
  ]
}`

func TestParse(t *testing.T) {
	set, err := mission.Parse([]byte(sampleDoc))
	require.NoError(t, err)

	assert.Equal(t, "alpha", set.Primary.ID)
	require.Len(t, set.Primary.Points, 3)
	assert.Equal(t, 480, set.Primary.Points[0].Minutes)
	assert.Equal(t, 485, set.Primary.Points[1].Minutes)
	assert.Equal(t, 490, set.Primary.Points[2].Minutes)

	require.Len(t, set.Others, 1)
	assert.Equal(t, "sim-1", set.Others[0].ID)
	assert.Equal(t, 485, set.Others[0].Points[0].Minutes)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mission.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleDoc), 0o644))
	set, err := mission.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "alpha", set.Primary.ID)

	_, err = mission.Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestParseAltitudeDefaultsToZero(t *testing.T) {
	doc := `{
	  "primary_mission": {
	    "drone_id": "alpha",
	    "waypoints": [{"x": 0, "y": 0}, {"x": 100, "y": 0}],
	    "start_time": 800,
	    "end_time": 810
	  }
	}`
	set, err := mission.Parse([]byte(doc))
	require.NoError(t, err)
	for _, p := range set.Primary.Points {
		assert.Zero(t, p.Z)
	}
}

func TestParseSortsSimulatedWaypoints(t *testing.T) {
	doc := `{
	  "primary_mission": {
	    "drone_id": "alpha",
	    "waypoints": [{"x": 0, "y": 0}, {"x": 10, "y": 0}],
	    "start_time": 800,
	    "end_time": 810
	  },
	  "simulated_missions": [
	    {
	      "drone_id": "sim-1",
	      "waypoints": [
	        {"x": 5, "y": 5, "timestamp": 900},
	        {"x": 0, "y": 0, "timestamp": 830}
	      ]
	    }
	  ]
	}`
	set, err := mission.Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, set.Others[0].Points, 2)
	assert.Equal(t, 510, set.Others[0].Points[0].Minutes)
	assert.Equal(t, 540, set.Others[0].Points[1].Minutes)
}

func TestParseRejections(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want error
	}{
		{
			name: "missing primary",
			doc:  `{"simulated_missions": []}`,
			want: domain.ErrEmptyMission,
		},
		{
			name: "primary waypoint carries timestamp",
			doc: `{"primary_mission": {"drone_id": "alpha",
				"waypoints": [{"x": 0, "y": 0, "timestamp": 800}],
				"start_time": 800, "end_time": 810}}`,
			want: domain.ErrMalformedWaypoint,
		},
		{
			name: "primary missing window",
			doc: `{"primary_mission": {"drone_id": "alpha",
				"waypoints": [{"x": 0, "y": 0}]}}`,
			want: domain.ErrInvalidTimeFormat,
		},
		{
			name: "inverted window",
			doc: `{"primary_mission": {"drone_id": "alpha",
				"waypoints": [{"x": 0, "y": 0}, {"x": 1, "y": 0}],
				"start_time": 900, "end_time": 830}}`,
			want: domain.ErrInvalidMissionWindow,
		},
		{
			name: "bad HHMM",
			doc: `{"primary_mission": {"drone_id": "alpha",
				"waypoints": [{"x": 0, "y": 0}],
				"start_time": 1275, "end_time": 1300}}`,
			want: domain.ErrInvalidTimeFormat,
		},
		{
			name: "waypoint missing coordinate",
			doc: `{"primary_mission": {"drone_id": "alpha",
				"waypoints": [{"x": 0}],
				"start_time": 800, "end_time": 810}}`,
			want: domain.ErrMalformedWaypoint,
		},
		{
			name: "simulated waypoint missing timestamp",
			doc: `{"primary_mission": {"drone_id": "alpha",
				"waypoints": [{"x": 0, "y": 0}, {"x": 1, "y": 0}],
				"start_time": 800, "end_time": 810},
				"simulated_missions": [{"drone_id": "sim-1",
				"waypoints": [{"x": 0, "y": 0}]}]}`,
			want: domain.ErrMalformedWaypoint,
		},
		{
			name: "simulated mission empty",
			doc: `{"primary_mission": {"drone_id": "alpha",
				"waypoints": [{"x": 0, "y": 0}, {"x": 1, "y": 0}],
				"start_time": 800, "end_time": 810},
				"simulated_missions": [{"drone_id": "sim-1", "waypoints": []}]}`,
			want: domain.ErrEmptyMission,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := mission.Parse([]byte(tc.doc))
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
