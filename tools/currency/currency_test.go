package currency_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tripkit/tripkit/config"
	"github.com/tripkit/tripkit/pkg/llmutils"
	"github.com/tripkit/tripkit/tools"
	"github.com/tripkit/tripkit/tools/currency"
)

func Test_Tool(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/latest", r.URL.Path)

		q := r.URL.Query()
		assert.Equal(t, "testkey", q.Get("apikey"))
		assert.Equal(t, "EUR", q.Get("currencies"))
		assert.Equal(t, "USD", q.Get("base_currency"))

		_, _ = w.Write([]byte(`{"data": {"EUR": 0.9233}}`))
	}))
	defer server.Close()

	ctx := context.Background()

	tool, err := currency.New(&config.Config{CurrencyAPIKey: "testkey"})
	require.NoError(t, err)
	tool.WithBaseURL(server.URL).WithHTTPClient(server.Client())

	assert.Equal(t, currency.ToolName, tool.Name())
	assert.Contains(t, tool.Description(), `convert the currency`)

	params := llmutils.ToJSONIndent(tool.Parameters())
	expParams := `{
	"properties": {
		"base_currency": {
			"type": "string",
			"title": "Base Currency",
			"description": "Base currency from which the conversions are required"
		},
		"currency": {
			"type": "string",
			"title": "Currency",
			"description": "Currency to which the base currency is to be converted"
		}
	},
	"type": "object",
	"required": [
		"base_currency",
		"currency"
	]
}`
	assert.Equal(t, expParams, params)

	_, err = tool.Call(ctx, "plain string")
	assert.True(t, errors.Is(err, tools.ErrFailedUnmarshalInput))
	assert.EqualError(t, err, "failed to unmarshal input: check the schema and try again")

	input := &currency.Request{
		BaseCurrency: "USD",
		Currency:     "EUR",
	}

	resp, err := tool.Run(ctx, input)
	require.NoError(t, err)
	assert.InDelta(t, 0.9233, resp.Rate, 0.0001)
	assert.Equal(t, "0.9233", resp.String())

	resp2, err := tool.Call(ctx, llmutils.ToJSON(input))
	require.NoError(t, err)
	assert.Equal(t, "0.9233", resp2)
}

func Test_Tool_MissingKey(t *testing.T) {
	_, err := currency.New(nil)
	require.Error(t, err)
	assert.EqualError(t, err, "CURRENCY_API_KEY is not set")

	_, err = currency.New(&config.Config{WeatherAPIKey: "other"})
	require.Error(t, err)
	assert.EqualError(t, err, "CURRENCY_API_KEY is not set")
}

func Test_Tool_InvalidRequest(t *testing.T) {
	tool, err := currency.New(&config.Config{CurrencyAPIKey: "testkey"})
	require.NoError(t, err)

	_, err = tool.Run(context.Background(), &currency.Request{BaseCurrency: "USD"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid request")
}

func Test_Tool_UpstreamErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing rate", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"data": {}}`))
		}))
		defer server.Close()

		tool, err := currency.New(&config.Config{CurrencyAPIKey: "testkey"})
		require.NoError(t, err)
		tool.WithBaseURL(server.URL).WithHTTPClient(server.Client())

		_, err = tool.Run(ctx, &currency.Request{BaseCurrency: "USD", Currency: "EUR"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, tools.ErrUpstreamRequest))
		// no city in the message, unlike the other tools
		assert.EqualError(t, err, "unable to fetch currency conversion rate: unexpected response: missing rate for EUR")
	})

	t.Run("bad status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		}))
		defer server.Close()

		tool, err := currency.New(&config.Config{CurrencyAPIKey: "testkey"})
		require.NoError(t, err)
		tool.WithBaseURL(server.URL).WithHTTPClient(server.Client())

		_, err = tool.Run(ctx, &currency.Request{BaseCurrency: "USD", Currency: "EUR"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, tools.ErrUpstreamRequest))
		assert.Contains(t, err.Error(), "unexpected status")
	})
}

func Test_Tool_CallAsync(t *testing.T) {
	tool, err := currency.New(&config.Config{CurrencyAPIKey: "testkey"})
	require.NoError(t, err)

	_, err = tool.CallAsync(context.Background(), `{"base_currency": "USD", "currency": "EUR"}`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, tools.ErrAsyncNotSupported))
}
