package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Block(t *testing.T) {
	tr := spatial(t)
	res := Resolve(tr, Query{})
	assert.Equal(t, ModeBlock, res.Mode)
	assert.Same(t, tr, res.Block)
	assert.Empty(t, res.Steps)
}

func TestResolve_SpindleKeepsLeadingZero(t *testing.T) {
	tr := spatial(t)
	res := Resolve(tr, Query{Spindle: "0.21", HasSpindle: true})
	require.Equal(t, ModeSpindle, res.Mode)
	assert.Equal(t, []Step{
		{Pscale: 0, Digit: 0, Content: "world"},
		{Pscale: -1, Digit: 2, Content: "south"},
		{Pscale: -2, Digit: 1, Content: "harbour"},
	}, res.Steps)
}

func TestResolve_SpindleStopsAtFirstGap(t *testing.T) {
	tr := spatial(t)
	res := Resolve(tr, Query{Spindle: "0.29", HasSpindle: true})
	assert.Len(t, res.Steps, 2)

	res = Resolve(tr, Query{Spindle: "5", HasSpindle: true})
	assert.Empty(t, res.Steps, "first digit absent")
}

func TestResolve_SpindleBranchWithoutText(t *testing.T) {
	tr := New(1)
	mustWrite(t, tr, "S:0.1", "a", "")
	res := Resolve(tr, Query{Spindle: "0.1", HasSpindle: true})
	require.Len(t, res.Steps, 2)
	assert.JSONEq(t, `{"1":"a"}`, res.Steps[0].Content)
}

func TestResolve_PlaceShiftsPscale(t *testing.T) {
	tr := New(2)
	mustWrite(t, tr, "T:34", "era", "")
	mustWrite(t, tr, "T:34.2", "season", "")
	res := Resolve(tr, Query{Spindle: "34.2", HasSpindle: true})
	require.Len(t, res.Steps, 3)
	assert.Equal(t, 1, res.Steps[0].Pscale)
	assert.Equal(t, 0, res.Steps[1].Pscale)
	assert.Equal(t, -1, res.Steps[2].Pscale)
}

func TestResolve_PointParity(t *testing.T) {
	tr := spatial(t)
	spindle := Resolve(tr, Query{Spindle: "0.21", HasSpindle: true})
	for _, s := range spindle.Steps {
		res := Resolve(tr, Query{Spindle: "0.21", HasSpindle: true, Point: s.Pscale, HasPoint: true})
		require.Equal(t, ModePoint, res.Mode)
		require.NotNil(t, res.Point)
		assert.Equal(t, s.Content, res.Point.Content)
	}
}

func TestResolve_PointFallsBackToDeepest(t *testing.T) {
	tr := spatial(t)
	res := Resolve(tr, Query{Spindle: "0.29", HasSpindle: true, Point: -5, HasPoint: true})
	require.NotNil(t, res.Point)
	assert.Equal(t, "south", res.Point.Content)

	res = Resolve(tr, Query{Spindle: "7", HasSpindle: true, Point: 0, HasPoint: true})
	assert.Nil(t, res.Point)
}
