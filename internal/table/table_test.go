package table

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendInfersKinds(t *testing.T) {
	tb := New("t", "id", "n", "x", "ok")
	tb.Append("a", 3, 1.5, true)
	tb.Append("b", 4, math.NaN(), false)

	assert.Equal(t, []Kind{KindText, KindInt, KindFloat, KindBool},
		[]Kind{tb.Columns[0].Kind, tb.Columns[1].Kind, tb.Columns[2].Kind, tb.Columns[3].Kind})
	assert.Equal(t, 2, tb.ColumnIndex("x"))
	assert.Equal(t, -1, tb.ColumnIndex("nope"))
	assert.Equal(t, "REAL", tb.Columns[2].Kind.SQLType())
}

func TestAppendInfersKindsPastMissingCells(t *testing.T) {
	tb := New("t", "frame_start", "note")
	tb.Append(nil, nil)
	tb.Append(120, nil)
	tb.Append(nil, "x")

	assert.Equal(t, KindInt, tb.Columns[0].Kind)
	assert.Equal(t, KindText, tb.Columns[1].Kind)

	var buf bytes.Buffer
	require.NoError(t, tb.WriteCSV(&buf))
	assert.Equal(t, "frame_start,note\n,\n120,\n,x\n", buf.String())
}

func TestAppendWrongWidthPanics(t *testing.T) {
	tb := New("t", "a", "b")
	assert.Panics(t, func() { tb.Append("only one") })
}

func TestWriteCSV(t *testing.T) {
	tb := New("t", "id", "x", "ok")
	tb.Append("a", 0.25, true)
	tb.Append("b", math.NaN(), false)

	var buf bytes.Buffer
	require.NoError(t, tb.WriteCSV(&buf))
	assert.Equal(t, "id,x,ok\na,0.25,true\nb,,false\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	tb := New("season", "team_id", "score")
	tb.Append("10", math.NaN())
	tb.Append("20", 1.5)

	var buf bytes.Buffer
	require.NoError(t, tb.WriteJSON(&buf))
	assert.JSONEq(t, `{"name":"season","columns":["team_id","score"],"rows":[["10",null],["20",1.5]]}`, buf.String())
}

func TestIsMissing(t *testing.T) {
	assert.True(t, IsMissing(nil))
	assert.True(t, IsMissing(math.NaN()))
	assert.True(t, IsMissing(math.Inf(1)))
	assert.False(t, IsMissing(0.0))
	assert.False(t, IsMissing(""))
}
