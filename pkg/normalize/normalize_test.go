package normalize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/minimap-analyzer/pkg/types"
)

func box(xmin, ymin, xmax, ymax float64) types.MinimapBounds {
	return types.MinimapBounds{XMin: xmin, YMin: ymin, XMax: xmax, YMax: ymax}
}

func icon(team string, cx, cy float64) types.RawDetection {
	return types.RawDetection{Team: team, BoundingBox: box(cx-10, cy-10, cx+10, cy+10)}
}

func TestResolveBounds(t *testing.T) {
	manual := box(0, 0, 300, 300)
	model := box(100, 100, 400, 400)

	got, src := ResolveBounds(&manual, &model)
	assert.Equal(t, manual, got)
	assert.Equal(t, types.BoundsManual, src)

	got, src = ResolveBounds(nil, &model)
	assert.Equal(t, model, got)
	assert.Equal(t, types.BoundsModel, src)

	got, src = ResolveBounds(nil, nil)
	assert.Equal(t, box(0, 0, 200, 200), got)
	assert.Equal(t, types.BoundsDefault, src)
}

func TestPositions_InsideKept(t *testing.T) {
	mapBox := box(100, 100, 300, 500)
	players, err := Positions(mapBox, []types.RawDetection{icon("Red", 150, 200)}, Options{})
	require.NoError(t, err)
	require.Len(t, players, 1)

	assert.InDelta(t, 25.0, players[0].X, 1e-9)
	assert.InDelta(t, 25.0, players[0].Y, 1e-9)
	assert.Equal(t, types.SideRed, players[0].Side)
}

func TestPositions_OutsideDropped(t *testing.T) {
	mapBox := box(0, 0, 200, 200)
	dets := []types.RawDetection{
		icon("Blue", 250, 100),
		icon("Blue", 100, 201),
		icon("Red", -1, 50),
	}
	players, err := Positions(mapBox, dets, Options{})
	require.NoError(t, err)
	assert.Empty(t, players)
}

func TestPositions_EdgeInclusive(t *testing.T) {
	mapBox := box(100, 100, 300, 300)
	dets := []types.RawDetection{
		icon("A", 100, 150),
		icon("B", 300, 300),
		icon("C", 200, 100),
	}
	players, err := Positions(mapBox, dets, Options{})
	require.NoError(t, err)
	require.Len(t, players, 3)

	assert.Equal(t, 0.0, players[0].X)
	assert.Equal(t, 100.0, players[1].X)
	assert.Equal(t, 100.0, players[1].Y)
	assert.Equal(t, 0.0, players[2].Y)
}

func TestPositions_PreservesOrder(t *testing.T) {
	mapBox := box(0, 0, 200, 200)
	dets := []types.RawDetection{
		icon("first", 10, 10),
		icon("dropped", 900, 900),
		icon("second", 190, 20),
		icon("third", 50, 150),
	}
	players, err := Positions(mapBox, dets, Options{})
	require.NoError(t, err)
	require.Len(t, players, 3)
	assert.Equal(t, "first", players[0].Team)
	assert.Equal(t, "second", players[1].Team)
	assert.Equal(t, "third", players[2].Team)
}

func TestPositions_ToleranceClamps(t *testing.T) {
	mapBox := box(100, 100, 300, 300)
	dets := []types.RawDetection{icon("Red", 99, 301)}

	players, err := Positions(mapBox, dets, Options{})
	require.NoError(t, err)
	assert.Empty(t, players, "no tolerance means strict inclusion")

	players, err = Positions(mapBox, dets, Options{Tolerance: 2})
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, 0.0, players[0].X)
	assert.Equal(t, 100.0, players[0].Y)
}

func TestPositions_Degenerate(t *testing.T) {
	cases := map[string]types.MinimapBounds{
		"zero width":  box(100, 100, 100, 300),
		"zero height": box(100, 100, 300, 100),
		"inverted":    box(300, 300, 100, 100),
		"nan":         box(math.NaN(), 0, 100, 100),
	}
	for name, b := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Positions(b, []types.RawDetection{icon("Red", 100, 100)}, Options{})
			assert.ErrorIs(t, err, ErrDegenerateBounds)
		})
	}
}

func TestPositions_AlwaysWithinPercentRange(t *testing.T) {
	mapBox := box(37, 41, 213, 199)
	var dets []types.RawDetection
	for x := 0.0; x <= 250; x += 7 {
		for y := 0.0; y <= 250; y += 11 {
			dets = append(dets, icon("x", x, y))
		}
	}
	players, err := Positions(mapBox, dets, Options{Tolerance: 5})
	require.NoError(t, err)
	require.NotEmpty(t, players)
	for _, p := range players {
		assert.GreaterOrEqual(t, p.X, 0.0)
		assert.LessOrEqual(t, p.X, 100.0)
		assert.GreaterOrEqual(t, p.Y, 0.0)
		assert.LessOrEqual(t, p.Y, 100.0)
	}
}

func havenResponse() *types.RawAnalysisResponse {
	loc := box(0, 0, 200, 200)
	return &types.RawAnalysisResponse{
		MapName:         "Haven",
		MinimapLocation: &loc,
		DetectedIcons: []types.RawDetection{
			{Team: "Red", BoundingBox: box(50, 50, 70, 70)},
			{Team: "Blue", BoundingBox: box(900, 900, 920, 920)},
		},
		Summary: "s",
	}
}

func TestNormalize_EndToEnd(t *testing.T) {
	result, err := Normalize(havenResponse(), nil, Options{})
	require.NoError(t, err)

	assert.Equal(t, "Haven", result.MapName)
	assert.Equal(t, box(0, 0, 200, 200), result.MinimapBounds)
	assert.Equal(t, types.BoundsModel, result.BoundsSource)
	assert.Equal(t, "s", result.Summary)
	require.Len(t, result.Players, 1)
	assert.Equal(t, types.PlayerPosition{Team: "Red", Side: types.SideRed, X: 30, Y: 30}, result.Players[0])
}

func TestNormalize_ManualOverridesModel(t *testing.T) {
	manual := box(0, 0, 300, 300)
	raw := havenResponse()
	other := box(100, 100, 400, 400)
	raw.MinimapLocation = &other

	result, err := Normalize(raw, &manual, Options{})
	require.NoError(t, err)
	assert.Equal(t, manual, result.MinimapBounds)
	assert.Equal(t, types.BoundsManual, result.BoundsSource)
	require.Len(t, result.Players, 1)
	assert.InDelta(t, 20.0, result.Players[0].X, 1e-9)
}

func TestNormalize_DefaultBounds(t *testing.T) {
	raw := havenResponse()
	raw.MinimapLocation = nil

	result, err := Normalize(raw, nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultBounds, result.MinimapBounds)
	assert.Equal(t, types.BoundsDefault, result.BoundsSource)
}

func TestNormalize_Idempotent(t *testing.T) {
	manual := box(10, 20, 260, 240)
	raw := havenResponse()

	first, err := Normalize(raw, &manual, Options{Tolerance: 1})
	require.NoError(t, err)
	second, err := Normalize(raw, &manual, Options{Tolerance: 1})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	for i := range first.Players {
		assert.Equal(t, math.Float64bits(first.Players[i].X), math.Float64bits(second.Players[i].X))
		assert.Equal(t, math.Float64bits(first.Players[i].Y), math.Float64bits(second.Players[i].Y))
	}
}

func TestNormalize_DegenerateManual(t *testing.T) {
	manual := box(50, 50, 50, 50)
	_, err := Normalize(havenResponse(), &manual, Options{})
	assert.ErrorIs(t, err, ErrDegenerateBounds)
}

func TestNormalize_NoIcons(t *testing.T) {
	raw := havenResponse()
	raw.DetectedIcons = []types.RawDetection{}

	result, err := Normalize(raw, nil, Options{})
	require.NoError(t, err)
	assert.NotNil(t, result.Players)
	assert.Empty(t, result.Players)
}

func TestCanonicalSide(t *testing.T) {
	tests := []struct {
		label string
		want  types.TeamSide
	}{
		{"Red", types.SideRed},
		{"red team", types.SideRed},
		{"Attacker", types.SideRed},
		{"Attackers", types.SideRed},
		{"Enemy", types.SideRed},
		{"T", types.SideRed},
		{"Terrorist", types.SideRed},
		{"Blue", types.SideBlue},
		{"Defender", types.SideBlue},
		{"ALLY", types.SideBlue},
		{"CT", types.SideBlue},
		{"Counter-Terrorist", types.SideBlue},
		{"team", types.SideUnknown},
		{"", types.SideUnknown},
		{"Spectator", types.SideUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalSide(tt.label))
		})
	}
}
