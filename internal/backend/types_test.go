package backend

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComparison_GroupComparisonKeepsServerOrder(t *testing.T) {
	body := `{"group_column": "region", "value_column": "sales", "type": "group_comparison", "chart": "aGk=",
		"data": {
			"west":  {"mean": 50.5, "median": 50, "min": 1, "max": 100, "std": 12.25, "count": 40},
			"north": {"mean": 20, "median": 19, "min": 2, "max": 44, "std": null, "count": 1},
			"east":  {"mean": 5, "median": 5, "min": 5, "max": 5, "std": 0, "count": 3}
		}}`

	var cmp Comparison
	require.NoError(t, json.Unmarshal([]byte(body), &cmp))

	assert.Equal(t, ComparisonGroup, cmp.Type)
	assert.Equal(t, "region", cmp.GroupColumn)
	assert.Equal(t, "sales", cmp.ValueColumn)
	assert.True(t, cmp.HasChart())
	require.NotNil(t, cmp.Groups)
	assert.Equal(t, 3, cmp.Groups.Len())

	var keys []string
	for pair := cmp.Groups.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	assert.Equal(t, []string{"west", "north", "east"}, keys)

	north, _ := cmp.Groups.Get("north")
	assert.Nil(t, north.Std)
	assert.Equal(t, 1, north.Count)
}

func TestComparison_Variants(t *testing.T) {
	t.Run("cross tabulation", func(t *testing.T) {
		var cmp Comparison
		require.NoError(t, json.Unmarshal([]byte(`{"type": "cross_tabulation", "group_column": "a", "value_column": "b",
			"data": {"x": {"p": 1, "q": 2}, "y": {"p": 0, "q": 5}}}`), &cmp))
		require.NotNil(t, cmp.CrossTab)
		row, ok := cmp.CrossTab.Get("y")
		require.True(t, ok)
		q, _ := row.Get("q")
		assert.Equal(t, 5, q)
	})

	t.Run("invalid", func(t *testing.T) {
		var cmp Comparison
		require.NoError(t, json.Unmarshal([]byte(`{"type": "invalid", "data": {"error": "Please select appropriate columns for comparison"}}`), &cmp))
		assert.Equal(t, "Please select appropriate columns for comparison", cmp.Message)
	})

	t.Run("unknown type", func(t *testing.T) {
		var cmp Comparison
		require.NoError(t, json.Unmarshal([]byte(`{"type": "anova", "data": {"f": 3.2}}`), &cmp))
		assert.Equal(t, ComparisonType("anova"), cmp.Type)
		assert.JSONEq(t, `{"f": 3.2}`, string(cmp.Data))
	})

	t.Run("null data", func(t *testing.T) {
		var cmp Comparison
		require.NoError(t, json.Unmarshal([]byte(`{"type": "correlation", "data": null}`), &cmp))
		assert.Nil(t, cmp.Correlation)
	})

	t.Run("malformed data", func(t *testing.T) {
		var cmp Comparison
		assert.Error(t, json.Unmarshal([]byte(`{"type": "group_comparison", "data": [1, 2]}`), &cmp))
	})
}

func TestComparison_MarshalRoundTripsWireShape(t *testing.T) {
	in := `{"type":"correlation","group_column":"x","value_column":"y","chart":null,"data":{"correlation":0.73,"group_column":"x","value_column":"y"}}`

	var cmp Comparison
	require.NoError(t, json.Unmarshal([]byte(in), &cmp))
	out, err := json.Marshal(cmp)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestAnalysis_ColumnLookup(t *testing.T) {
	var analysis Analysis
	require.NoError(t, json.Unmarshal([]byte(analyzeBody), &analysis))

	col, ok := analysis.Column("region")
	require.True(t, ok)
	require.NotNil(t, col.TopValues)
	north, _ := col.TopValues.Get("north")
	assert.Equal(t, 700, north)
	assert.Equal(t, "north", col.TopValues.Oldest().Key)

	var nilAnalysis *Analysis
	assert.False(t, nilAnalysis.HasColumn("region"))
	assert.Equal(t, 0, nilAnalysis.ChartCount())
}

func TestAnalysis_NumericColumnLabels(t *testing.T) {
	body := `{
  "file_info": {"rows": 2, "columns": 3},
  "summary": "File has 2 rows and 3 columns.\n",
  "analysis": [
    {"name": 2020, "type": "numeric", "missing_percent": 0, "stats": {"min": 1, "max": 2, "mean": 1.5, "median": 1.5}},
    {"name": 12.5, "type": "numeric", "missing_percent": 0, "stats": {"min": 1, "max": 2, "mean": 1.5, "median": 1.5}},
    {"name": "region", "type": "categorical", "missing_percent": 0, "top_values": {"north": 2}}
  ],
  "charts": {"2020": null, "12.5": null, "region": null},
  "columns": [2020, 12.5, "region"]
}`

	var analysis Analysis
	require.NoError(t, json.Unmarshal([]byte(body), &analysis))

	assert.Equal(t, []string{"2020", "12.5", "region"}, analysis.Names())
	col, ok := analysis.Column("2020")
	require.True(t, ok)
	assert.Equal(t, ColumnNumeric, col.Type)
	require.NotNil(t, col.Stats)
	assert.Equal(t, 1.5, col.Stats.Mean)
	assert.True(t, analysis.HasColumn("12.5"))
	assert.Equal(t, 3, analysis.ChartCount())
}

func TestAnalysis_RejectsObjectColumnLabel(t *testing.T) {
	var analysis Analysis
	err := json.Unmarshal([]byte(`{"analysis": [{"name": {"a": 1}, "type": "numeric"}]}`), &analysis)
	assert.Error(t, err)
}
