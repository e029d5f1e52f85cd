package backend

import (
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ColumnType classifies a column as the backend sees it
type ColumnType string

const (
	ColumnNumeric     ColumnType = "numeric"
	ColumnCategorical ColumnType = "categorical"
)

// ComparisonType tags the variant of a /compare response
type ComparisonType string

const (
	ComparisonGroup       ComparisonType = "group_comparison"
	ComparisonCorrelation ComparisonType = "correlation"
	ComparisonCrossTab    ComparisonType = "cross_tabulation"
	ComparisonInvalid     ComparisonType = "invalid"
)

// TopValues maps category values to their frequencies in server order
type TopValues = orderedmap.OrderedMap[string, int]

// ChartSet maps column names to base64 PNG payloads in server order.
// A nil payload means the backend failed to plot that column.
type ChartSet = orderedmap.OrderedMap[string, *string]

// Analysis is the /analyze response body
type Analysis struct {
	FileInfo    FileInfo  `json:"file_info"`
	Summary     string    `json:"summary"`
	Columns     []Column  `json:"analysis"`
	Charts      *ChartSet `json:"charts"`
	ColumnNames []string  `json:"columns,omitempty"`
}

// FileInfo is the row and column count of the analyzed file
type FileInfo struct {
	Rows    int `json:"rows"`
	Columns int `json:"columns"`
}

// Column describes one column of the analyzed file
type Column struct {
	Name           string        `json:"name"`
	Type           ColumnType    `json:"type"`
	MissingPercent float64       `json:"missing_percent"`
	Stats          *NumericStats `json:"stats,omitempty"`
	TopValues      *TopValues    `json:"top_values,omitempty"`
}

// NumericStats holds the summary statistics of a numeric column
type NumericStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// label is a column label. Spreadsheet headers can be numbers or booleans,
// which the backend passes through untyped; they are kept as their JSON text.
type label string

func (l *label) UnmarshalJSON(data []byte) error {
	switch {
	case string(data) == "null":
		*l = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = label(s)
		return nil
	case string(data) == "true" || string(data) == "false":
		*l = label(data)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("column label must be a string or number: %w", err)
	}
	*l = label(n.String())
	return nil
}

// UnmarshalJSON accepts non-string column labels
func (c *Column) UnmarshalJSON(data []byte) error {
	type plain Column
	aux := struct {
		*plain
		Name label `json:"name"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.Name = string(aux.Name)
	return nil
}

// UnmarshalJSON accepts non-string entries in the column list
func (a *Analysis) UnmarshalJSON(data []byte) error {
	type plain Analysis
	aux := struct {
		*plain
		ColumnNames []label `json:"columns,omitempty"`
	}{plain: (*plain)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	a.ColumnNames = nil
	for _, name := range aux.ColumnNames {
		a.ColumnNames = append(a.ColumnNames, string(name))
	}
	return nil
}

// HasColumn reports whether name is one of the analyzed columns
func (a *Analysis) HasColumn(name string) bool {
	_, ok := a.Column(name)
	return ok
}

// Column returns the descriptor for name
func (a *Analysis) Column(name string) (Column, bool) {
	if a == nil {
		return Column{}, false
	}
	for _, c := range a.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Names returns column names in server order
func (a *Analysis) Names() []string {
	if a == nil {
		return nil
	}
	if len(a.ColumnNames) > 0 {
		return append([]string(nil), a.ColumnNames...)
	}
	names := make([]string, 0, len(a.Columns))
	for _, c := range a.Columns {
		names = append(names, c.Name)
	}
	return names
}

// ChartCount returns the number of chart entries, including empty ones
func (a *Analysis) ChartCount() int {
	if a == nil || a.Charts == nil {
		return 0
	}
	return a.Charts.Len()
}

// GroupStats is one row of a group comparison. Numeric fields are nil when
// the backend could not compute them (e.g. std of a single value).
type GroupStats struct {
	Mean   *float64 `json:"mean"`
	Median *float64 `json:"median"`
	Min    *float64 `json:"min"`
	Max    *float64 `json:"max"`
	Std    *float64 `json:"std"`
	Count  int      `json:"count"`
}

// GroupTable maps group keys to their statistics in server order
type GroupTable = orderedmap.OrderedMap[string, GroupStats]

// CrossTab maps row values to column values to counts, both in server order
type CrossTab = orderedmap.OrderedMap[string, *orderedmap.OrderedMap[string, int]]

// Comparison is the /compare response body. Exactly one of Groups,
// Correlation, CrossTab or Message is set, according to Type.
type Comparison struct {
	Type        ComparisonType
	GroupColumn string
	ValueColumn string
	Chart       *string

	Groups      *GroupTable
	Correlation *float64
	CrossTab    *CrossTab
	Message     string

	// Data keeps the raw payload of types this client does not know
	Data json.RawMessage
}

type comparisonWire struct {
	Type        ComparisonType  `json:"type"`
	GroupColumn string          `json:"group_column"`
	ValueColumn string          `json:"value_column"`
	Chart       *string         `json:"chart"`
	Data        json.RawMessage `json:"data"`
}

type correlationData struct {
	Correlation *float64 `json:"correlation"`
	GroupColumn string   `json:"group_column,omitempty"`
	ValueColumn string   `json:"value_column,omitempty"`
}

type invalidData struct {
	Error string `json:"error"`
}

// UnmarshalJSON decodes the variant selected by the type tag
func (c *Comparison) UnmarshalJSON(data []byte) error {
	var wire comparisonWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*c = Comparison{
		Type:        wire.Type,
		GroupColumn: wire.GroupColumn,
		ValueColumn: wire.ValueColumn,
		Chart:       wire.Chart,
	}

	if len(wire.Data) == 0 || string(wire.Data) == "null" {
		return nil
	}

	switch wire.Type {
	case ComparisonGroup:
		groups := orderedmap.New[string, GroupStats]()
		if err := json.Unmarshal(wire.Data, groups); err != nil {
			return fmt.Errorf("group comparison data: %w", err)
		}
		c.Groups = groups
	case ComparisonCorrelation:
		var d correlationData
		if err := json.Unmarshal(wire.Data, &d); err != nil {
			return fmt.Errorf("correlation data: %w", err)
		}
		c.Correlation = d.Correlation
	case ComparisonCrossTab:
		tab := orderedmap.New[string, *orderedmap.OrderedMap[string, int]]()
		if err := json.Unmarshal(wire.Data, tab); err != nil {
			return fmt.Errorf("cross tabulation data: %w", err)
		}
		c.CrossTab = tab
	case ComparisonInvalid:
		var d invalidData
		if err := json.Unmarshal(wire.Data, &d); err != nil {
			return fmt.Errorf("invalid comparison data: %w", err)
		}
		c.Message = d.Error
	default:
		c.Data = append(json.RawMessage(nil), wire.Data...)
	}
	return nil
}

// MarshalJSON encodes the comparison in the backend's wire shape
func (c Comparison) MarshalJSON() ([]byte, error) {
	wire := comparisonWire{
		Type:        c.Type,
		GroupColumn: c.GroupColumn,
		ValueColumn: c.ValueColumn,
		Chart:       c.Chart,
	}

	var data any
	switch c.Type {
	case ComparisonGroup:
		data = c.Groups
	case ComparisonCorrelation:
		data = correlationData{Correlation: c.Correlation, GroupColumn: c.GroupColumn, ValueColumn: c.ValueColumn}
	case ComparisonCrossTab:
		data = c.CrossTab
	case ComparisonInvalid:
		data = invalidData{Error: c.Message}
	default:
		if len(c.Data) > 0 {
			wire.Data = c.Data
		}
	}

	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		wire.Data = raw
	}
	return json.Marshal(wire)
}

// HasChart reports whether the backend rendered a comparison chart
func (c *Comparison) HasChart() bool {
	return c != nil && c.Chart != nil && *c.Chart != ""
}

// CompareRequest is the /compare request body. FileContent is the full
// decoded text of the uploaded file; the backend keeps no state between calls.
type CompareRequest struct {
	GroupCol    string `json:"group_col"`
	ValueCol    string `json:"value_col"`
	FileContent string `json:"file_content"`
}

// HealthStatus is the body returned by the backend root endpoint
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorResponse is the body of a failed request
type ErrorResponse struct {
	Error string `json:"error"`
}
