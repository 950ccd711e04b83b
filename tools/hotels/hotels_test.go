package hotels_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tripkit/tripkit/config"
	"github.com/tripkit/tripkit/pkg/llmutils"
	"github.com/tripkit/tripkit/tools"
	"github.com/tripkit/tripkit/tools/hotels"
)

func adsBody(prices ...int) string {
	faker := gofakeit.New(11)
	ads := make([]map[string]any, len(prices))
	for i, p := range prices {
		ads[i] = map[string]any{
			"name":            fmt.Sprintf("%s Hotel", faker.LastName()),
			"extracted_price": p,
			"currency":        "USD",
		}
	}
	js, _ := json.Marshal(map[string]any{"ads": ads})
	return string(js)
}

func newTestTool(t *testing.T, body string) (*hotels.Tool, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/search.json", r.URL.Path)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	tool, err := hotels.New(&config.Config{SerpAPIKey: "testkey"})
	require.NoError(t, err)
	tool.WithBaseURL(server.URL).WithHTTPClient(server.Client())
	return tool, server
}

func testRequest(budget int) *hotels.Request {
	return &hotels.Request{
		City:        "Paris, France",
		CheckIn:     "2026-09-01",
		CheckOut:    "2026-09-05",
		NumOfAdults: 2,
		Currency:    "USD",
		Budget:      budget,
	}
}

func Test_Tool(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "google_hotels", q.Get("engine"))
		assert.Equal(t, "Paris", q.Get("q"))
		assert.Equal(t, "2026-09-01", q.Get("check_in_date"))
		assert.Equal(t, "2026-09-05", q.Get("check_out_date"))
		assert.Equal(t, "2", q.Get("adults"))
		assert.Equal(t, "USD", q.Get("currency"))
		assert.Equal(t, "us", q.Get("gl"))
		assert.Equal(t, "en", q.Get("hl"))
		assert.Equal(t, "testkey", q.Get("api_key"))

		_, _ = w.Write([]byte(adsBody(120, 250, 90)))
	}))
	defer server.Close()

	ctx := context.Background()

	tool, err := hotels.New(&config.Config{SerpAPIKey: "testkey"})
	require.NoError(t, err)
	tool.WithBaseURL(server.URL).WithHTTPClient(server.Client())

	assert.Equal(t, hotels.ToolName, tool.Name())
	assert.Contains(t, tool.Description(), `hotel recommendations`)

	params := llmutils.ToJSONIndent(tool.Parameters())
	expParams := `{
	"properties": {
		"city": {
			"type": "string",
			"title": "City",
			"description": "City or hotel name to be searched"
		},
		"check_in": {
			"type": "string",
			"title": "Check In",
			"description": "Date for checking in to the hotel, should be in the format YYYY-MM-DD"
		},
		"check_out": {
			"type": "string",
			"title": "Check Out",
			"description": "Date for checking out from the hotel, should be in the format YYYY-MM-DD"
		},
		"num_of_adults": {
			"type": "integer",
			"title": "Number Of Adults",
			"description": "Number of adults on the trip"
		},
		"currency": {
			"type": "string",
			"title": "Currency",
			"description": "Currency in which the guests would pay, this would be the currency code"
		},
		"budget": {
			"type": "integer",
			"title": "Budget",
			"description": "Total budget for the hotels",
			"default": 0
		}
	},
	"type": "object",
	"required": [
		"city",
		"check_in",
		"check_out",
		"num_of_adults",
		"currency"
	]
}`
	assert.Equal(t, expParams, params)

	_, err = tool.Call(ctx, "plain string")
	assert.True(t, errors.Is(err, tools.ErrFailedUnmarshalInput))

	// budget 0 passes everything through, in the provider's order
	resp, err := tool.Run(ctx, testRequest(0))
	require.NoError(t, err)
	require.Len(t, resp.Hotels, 3)
	assert.Equal(t, "Paris", resp.City)

	var prices []float64
	for _, h := range resp.Hotels {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(h, &rec))
		prices = append(prices, rec["extracted_price"].(float64))
	}
	assert.Equal(t, []float64{120, 250, 90}, prices)

	out, err := tool.Call(ctx, llmutils.ToJSON(testRequest(0)))
	require.NoError(t, err)
	assert.JSONEq(t, adsBody(120, 250, 90), `{"ads": `+out+`}`)
}

func Test_Tool_BudgetFilter(t *testing.T) {
	ctx := context.Background()

	// boundary is inclusive: a price equal to the budget stays
	tool, _ := newTestTool(t, adsBody(120, 250, 90))
	resp, err := tool.Run(ctx, testRequest(120))
	require.NoError(t, err)
	require.Len(t, resp.Hotels, 2)

	var prices []float64
	for _, h := range resp.Hotels {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(h, &rec))
		prices = append(prices, rec["extracted_price"].(float64))
	}
	// relative order preserved
	assert.Equal(t, []float64{120, 90}, prices)

	// a budget below every price yields an empty list
	resp, err = tool.Run(ctx, testRequest(10))
	require.NoError(t, err)
	assert.Empty(t, resp.Hotels)
	assert.Equal(t, "[]", resp.String())
}

func Test_Tool_NoAds(t *testing.T) {
	ctx := context.Background()

	for _, body := range []string{`{}`, `{"ads": []}`, `{"search_metadata": {"status": "Success"}}`} {
		tool, _ := newTestTool(t, body)

		resp, err := tool.Run(ctx, testRequest(0))
		require.NoError(t, err)
		assert.Empty(t, resp.Hotels)
		assert.Equal(t, "[]", resp.String())

		// budget is irrelevant when there is nothing to filter
		resp, err = tool.Run(ctx, testRequest(500))
		require.NoError(t, err)
		assert.Empty(t, resp.Hotels)
	}
}

func Test_Tool_MissingPrice(t *testing.T) {
	ctx := context.Background()
	body := `{"ads": [{"name": "No Price Inn"}]}`

	// with a budget the price is required
	tool, _ := newTestTool(t, body)
	_, err := tool.Run(ctx, testRequest(100))
	require.Error(t, err)
	assert.True(t, errors.Is(err, tools.ErrUpstreamRequest))
	assert.EqualError(t, err, "failed to fetch hotels for Paris: unexpected response: missing extracted_price")

	// without a budget the record passes through untouched
	resp, err := tool.Run(ctx, testRequest(0))
	require.NoError(t, err)
	require.Len(t, resp.Hotels, 1)
	assert.JSONEq(t, `{"name": "No Price Inn"}`, string(resp.Hotels[0]))
}

func Test_Tool_MissingKey(t *testing.T) {
	_, err := hotels.New(nil)
	require.Error(t, err)
	assert.EqualError(t, err, "SERP_API_KEY is not set")
}

func Test_Tool_InvalidRequest(t *testing.T) {
	tool, err := hotels.New(&config.Config{SerpAPIKey: "testkey"})
	require.NoError(t, err)

	req := testRequest(0)
	req.CheckIn = "01-09-2026" // wrong date format
	_, err = tool.Run(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid request")
}

func Test_Tool_CallAsync(t *testing.T) {
	tool, err := hotels.New(&config.Config{SerpAPIKey: "testkey"})
	require.NoError(t, err)

	_, err = tool.CallAsync(context.Background(), llmutils.ToJSON(testRequest(0)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, tools.ErrAsyncNotSupported))
}
