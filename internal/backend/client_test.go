package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const analyzeBody = `{
  "file_info": {"rows": 1200, "columns": 3},
  "summary": "File has 1200 rows and 3 columns.\n",
  "analysis": [
    {"name": "region", "type": "categorical", "missing_percent": 0.0, "top_values": {"north": 700, "south": 500}},
    {"name": "sales", "type": "numeric", "missing_percent": 2.5, "stats": {"min": 1.0, "max": 99.5, "mean": 40.12, "median": 38.0}},
    {"name": "units", "type": "numeric", "missing_percent": 0.0, "stats": {"min": 0, "max": 12, "mean": 4.2, "median": 4}}
  ],
  "charts": {"region": "aGVsbG8=", "sales": null, "units": "d29ybGQ="},
  "columns": ["region", "sales", "units"]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := DefaultConfig()
	config.BaseURL = server.URL
	client, err := New(config)
	require.NoError(t, err)
	return client
}

func TestClient_New(t *testing.T) {
	client, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8000", client.BaseURL())

	_, err = New(&Config{BaseURL: "not a url"})
	assert.Error(t, err)

	_, err = New(&Config{BaseURL: "http://localhost", RequestsPerSecond: -1})
	assert.Error(t, err)
}

func TestClient_Analyze(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analyze", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "tabsum", r.Header.Get("User-Agent"))
		_, err := uuid.Parse(r.Header.Get("X-Request-ID"))
		assert.NoError(t, err, "request id should be a uuid")

		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer func() { _ = file.Close() }()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "sales.csv", header.Filename)
		assert.Equal(t, "region,sales\nnorth,10\n", string(data))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(analyzeBody))
	})

	analysis, err := client.Analyze(context.Background(), "/tmp/data/sales.csv", strings.NewReader("region,sales\nnorth,10\n"))
	require.NoError(t, err)

	assert.Equal(t, 1200, analysis.FileInfo.Rows)
	assert.Equal(t, 3, analysis.FileInfo.Columns)
	require.Len(t, analysis.Columns, 3)
	assert.Equal(t, ColumnCategorical, analysis.Columns[0].Type)
	assert.Equal(t, 40.12, analysis.Columns[1].Stats.Mean)
	assert.Equal(t, 3, analysis.ChartCount())
	assert.Equal(t, []string{"region", "sales", "units"}, analysis.Names())
	assert.True(t, analysis.HasColumn("units"))
	assert.False(t, analysis.HasColumn("profit"))

	sales, ok := analysis.Charts.Get("sales")
	assert.True(t, ok)
	assert.Nil(t, sales)
}

func TestClient_AnalyzeLowercasesExtension(t *testing.T) {
	var got atomic.Value
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		got.Store(header.Filename)
		_, _ = w.Write([]byte(analyzeBody))
	})

	_, err := client.Analyze(context.Background(), "/data/Q1.SALES.CSV", strings.NewReader("x\n1\n"))
	require.NoError(t, err)
	assert.Equal(t, "Q1.SALES.csv", got.Load())
}

func TestUploadName(t *testing.T) {
	tests := map[string]string{
		"sales.csv":        "sales.csv",
		"DATA.CSV":         "DATA.csv",
		"/tmp/Report.Xlsx": "Report.xlsx",
		"noext":            "noext",
	}
	for in, want := range tests {
		assert.Equal(t, want, uploadName(in), in)
	}
}

func TestClient_AnalyzeNumericColumnNames(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
  "file_info": {"rows": 1, "columns": 1},
  "summary": "",
  "analysis": [{"name": 2020, "type": "numeric", "missing_percent": 0, "stats": {"min": 1, "max": 1, "mean": 1, "median": 1}}],
  "charts": {"2020": null},
  "columns": [2020]
}`))
	})

	analysis, err := client.Analyze(context.Background(), "years.xlsx", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, []string{"2020"}, analysis.Names())
	assert.Equal(t, "2020", analysis.Columns[0].Name)
}

func TestClient_AnalyzeServerErrorWithoutBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	analysis, err := client.Analyze(context.Background(), "a.csv", strings.NewReader("x\n1\n"))
	assert.Nil(t, analysis)
	require.Error(t, err)
	assert.Equal(t, "Server error: 500", UserMessage(err))
	assert.True(t, IsType(err, ErrTypeStatus))

	be, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, be.StatusCode)
}

func TestClient_AnalyzeIgnoresErrorBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "Unsupported file format"}`))
	})

	_, err := client.Analyze(context.Background(), "a.txt", strings.NewReader("x"))
	assert.Equal(t, "Server error: 400", UserMessage(err))
}

func TestClient_AnalyzeInvalidJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>proxy</html>"))
	})

	_, err := client.Analyze(context.Background(), "a.csv", strings.NewReader("x"))
	assert.True(t, IsType(err, ErrTypeDecode))
	assert.Equal(t, MsgInvalidResponse, UserMessage(err))
}

func TestClient_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	client, err := New(&Config{BaseURL: url, UserAgent: "tabsum"})
	require.NoError(t, err)

	_, err = client.Analyze(context.Background(), "a.csv", strings.NewReader("x"))
	assert.True(t, IsType(err, ErrTypeNetwork))
	assert.Equal(t, MsgAnalyzeUnavailable, UserMessage(err))

	_, err = client.Compare(context.Background(), &CompareRequest{GroupCol: "a", ValueCol: "b", FileContent: "a,b\n"})
	assert.Equal(t, MsgCompareUnavailable, UserMessage(err))
}

func TestClient_Cancelled(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := client.Analyze(ctx, "a.csv", strings.NewReader("x"))
	assert.True(t, IsType(err, ErrTypeCancelled))
	assert.Equal(t, MsgRequestCancelled, UserMessage(err))
}

func TestClient_Compare(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/compare", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		var req CompareRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "region", req.GroupCol)
		assert.Equal(t, "sales", req.ValueCol)
		assert.Equal(t, "region,sales\nnorth,10\n", req.FileContent)

		_, _ = w.Write([]byte(`{"group_column": "region", "value_column": "sales", "type": "correlation",
			"data": {"correlation": 0.73, "group_column": "region", "value_column": "sales"}, "chart": null}`))
	})

	cmp, err := client.Compare(context.Background(), &CompareRequest{
		GroupCol:    "region",
		ValueCol:    "sales",
		FileContent: "region,sales\nnorth,10\n",
	})
	require.NoError(t, err)
	assert.Equal(t, ComparisonCorrelation, cmp.Type)
	require.NotNil(t, cmp.Correlation)
	assert.Equal(t, 0.73, *cmp.Correlation)
	assert.False(t, cmp.HasChart())
}

func TestClient_CompareErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
		errType ErrorType
	}{
		{"server message", http.StatusBadRequest, `{"error": "Column 'x' not found. Available: ['a']"}`, "Column 'x' not found. Available: ['a']", ErrTypeServer},
		{"empty error field", http.StatusInternalServerError, `{"error": ""}`, "Server error: 500", ErrTypeStatus},
		{"plain text body", http.StatusBadGateway, "bad gateway", "Server error: 502", ErrTypeStatus},
		{"no body", http.StatusServiceUnavailable, "", "Server error: 503", ErrTypeStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			cmp, err := client.Compare(context.Background(), &CompareRequest{GroupCol: "a", ValueCol: "b", FileContent: "a,b\n"})
			assert.Nil(t, cmp)
			assert.Equal(t, tt.message, UserMessage(err))
			assert.True(t, IsType(err, tt.errType))
		})
	}
}

func TestClient_Health(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{"status": "ok", "message": "Data Analyzer Backend Running"}`))
	})

	status, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "Data Analyzer Backend Running", status.Message)
}

func TestClient_RateLimited(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"status": "ok"}`))
	}))
	defer server.Close()

	client, err := New(&Config{BaseURL: server.URL, RequestsPerSecond: 1, Burst: 1})
	require.NoError(t, err)

	_, err = client.Health(context.Background())
	require.NoError(t, err)

	// The second request must wait about a second for a token; a short
	// deadline makes the wait fail as a cancellation.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.Health(ctx)
	assert.True(t, IsType(err, ErrTypeCancelled), "unexpected error: %v", err)
	assert.Equal(t, int32(1), calls.Load())
}
