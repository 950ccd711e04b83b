// Package currency provides the conversion-rate tool backed by the
// freecurrencyapi.com REST API.
package currency

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/tidwall/gjson"
	"github.com/tripkit/tripkit/config"
	"github.com/tripkit/tripkit/pkg/llmutils"
	"github.com/tripkit/tripkit/pkg/metricskey"
	"github.com/tripkit/tripkit/pkg/schema"
	"github.com/tripkit/tripkit/tools"
)

const (
	ToolName = "CurrencyConverterTool"

	// DefaultBaseURL is the currency rate provider endpoint prefix.
	DefaultBaseURL = "https://api.freecurrencyapi.com/v1"
)

var validate = validator.New()

// Request represents the tool input.
// The currency codes are forwarded as given; the provider rejects unknown ones.
type Request struct {
	BaseCurrency string `json:"base_currency" yaml:"base_currency" validate:"required" jsonschema:"title=Base Currency,description=Base currency from which the conversions are required"`
	Currency     string `json:"currency" yaml:"currency" validate:"required" jsonschema:"title=Currency,description=Currency to which the base currency is to be converted"`
}

// Result holds the latest conversion rate of Currency relative to BaseCurrency.
type Result struct {
	BaseCurrency string  `json:"base_currency" yaml:"base_currency"`
	Currency     string  `json:"currency" yaml:"currency"`
	Rate         float64 `json:"rate" yaml:"rate"`
}

func (r *Result) String() string {
	return strconv.FormatFloat(r.Rate, 'f', -1, 64)
}

// Tool is a tool that converts between currencies.
type Tool struct {
	name        string
	description string
	funcParams  *jsonschema.Schema

	apiKey     string
	baseURL    string
	httpClient *http.Client
	callback   tools.Callback
}

var (
	_ tools.Tool[Request, Result] = (*Tool)(nil)
	_ tools.AsyncCaller           = (*Tool)(nil)
)

// New creates the currency converter tool. The currency credential must be
// present in the config; a missing credential fails here, never at call time.
func New(cfg *config.Config) (*Tool, error) {
	if cfg == nil || cfg.CurrencyAPIKey == "" {
		return nil, errors.New("CURRENCY_API_KEY is not set")
	}

	sc, err := schema.New(reflect.TypeOf(Request{}))
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create schema")
	}
	tool := &Tool{
		name:        ToolName,
		description: "Tool to convert the currency.",
		funcParams:  sc.Parameters,
		apiKey:      cfg.CurrencyAPIKey,
		baseURL:     DefaultBaseURL,
		httpClient:  http.DefaultClient,
	}
	return tool, nil
}

func (t *Tool) WithBaseURL(baseURL string) *Tool {
	t.baseURL = baseURL
	return t
}

func (t *Tool) WithHTTPClient(client *http.Client) *Tool {
	t.httpClient = client
	return t
}

func (t *Tool) WithCallback(cb tools.Callback) *Tool {
	t.callback = cb
	return t
}

func (t *Tool) Name() string {
	return t.name
}

func (t *Tool) Description() string {
	return t.description
}

func (t *Tool) Parameters() any {
	return t.funcParams
}

func (t *Tool) Run(ctx context.Context, req *Request) (*Result, error) {
	if err := validate.Struct(req); err != nil {
		return nil, errors.WithMessage(err, "invalid request")
	}

	vals := url.Values{}
	vals.Set("apikey", t.apiKey)
	vals.Set("currencies", req.Currency)
	vals.Set("base_currency", req.BaseCurrency)

	body, err := tools.FetchJSON(ctx, t.httpClient, t.baseURL+"/latest?"+vals.Encode())
	if err != nil {
		metricskey.StatsUpstreamRequestsFailed.IncrCounter(1, t.name)
		return nil, tools.UpstreamError(err, "unable to fetch currency conversion rate")
	}

	rate := gjson.GetBytes(body, "data."+req.Currency)
	if !rate.Exists() || rate.Type != gjson.Number {
		err = errors.Errorf("unexpected response: missing rate for %s", req.Currency)
		return nil, tools.UpstreamError(err, "unable to fetch currency conversion rate")
	}

	res := &Result{
		BaseCurrency: req.BaseCurrency,
		Currency:     req.Currency,
		Rate:         rate.Float(),
	}
	return res, nil
}

func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	defer metricskey.PerfToolCall.MeasureSince(time.Now(), t.name)
	if t.callback != nil {
		t.callback.OnToolStart(ctx, t, input)
	}

	var req Request
	if err := json.Unmarshal(llmutils.CleanJSON([]byte(input)), &req); err != nil {
		metricskey.StatsToolInputParseErrors.IncrCounter(1, t.name)
		err = errors.WithStack(tools.ErrFailedUnmarshalInput)
		if t.callback != nil {
			t.callback.OnToolError(ctx, t, input, err)
		}
		return "", err
	}

	out, err := t.Run(ctx, &req)
	if err != nil {
		metricskey.StatsToolCallsFailed.IncrCounter(1, t.name)
		if t.callback != nil {
			t.callback.OnToolError(ctx, t, input, err)
		}
		return "", err
	}

	metricskey.StatsToolCallsSucceeded.IncrCounter(1, t.name)
	if t.callback != nil {
		t.callback.OnToolEnd(ctx, t, input, out.String())
	}
	return out.String(), nil
}

// CallAsync fails immediately: the converter is synchronous only.
func (t *Tool) CallAsync(ctx context.Context, input string) (string, error) {
	return "", errors.WithStack(tools.ErrAsyncNotSupported)
}
