// Package weather provides the current-conditions and forecast tools backed
// by the weatherapi.com REST API.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
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
	ToolName = "WeatherTool"

	// DefaultBaseURL is the weather provider endpoint prefix.
	DefaultBaseURL = "https://api.weatherapi.com/v1"
)

var validate = validator.New()

// Request represents the tool input.
type Request struct {
	City string `json:"city" yaml:"city" validate:"required" jsonschema:"title=City,description=Name of the city"`
}

// Result holds the current conditions for a city.
type Result struct {
	City      string  `json:"city" yaml:"city"`
	TempC     float64 `json:"temp_c" yaml:"temp_c"`
	Condition string  `json:"condition" yaml:"condition"`
}

func (r *Result) String() string {
	return fmt.Sprintf("The current weather in %s is %s°C with %s.", r.City, formatTemp(r.TempC), r.Condition)
}

// Tool is a tool that reports the current weather for a given city.
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

// New creates the weather tool. The weather credential must be present in the
// config; a missing credential fails here, never at call time.
func New(cfg *config.Config) (*Tool, error) {
	if cfg == nil || cfg.WeatherAPIKey == "" {
		return nil, errors.New("WEATHER_API_KEY is not set")
	}

	sc, err := schema.New(reflect.TypeOf(Request{}))
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create schema")
	}
	tool := &Tool{
		name:        ToolName,
		description: "Tool to search for current weather for a given city.",
		funcParams:  sc.Parameters,
		apiKey:      cfg.WeatherAPIKey,
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

	// the model sometimes appends the country to the city
	city, _, _ := strings.Cut(req.City, ",")

	vals := url.Values{}
	vals.Set("key", t.apiKey)
	vals.Set("q", city)
	vals.Set("aqi", "yes")

	body, err := tools.FetchJSON(ctx, t.httpClient, t.baseURL+"/current.json?"+vals.Encode())
	if err != nil {
		metricskey.StatsUpstreamRequestsFailed.IncrCounter(1, t.name)
		return nil, tools.UpstreamError(err, "failed to fetch weather for %s", city)
	}

	temp := gjson.GetBytes(body, "current.temp_c")
	cond := gjson.GetBytes(body, "current.condition.text")
	if !temp.Exists() || !cond.Exists() {
		err = errors.New("unexpected response: missing current conditions")
		return nil, tools.UpstreamError(err, "failed to fetch weather for %s", city)
	}

	res := &Result{
		City:      city,
		TempC:     temp.Float(),
		Condition: cond.String(),
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

// CallAsync fails immediately: the weather tool is synchronous only.
func (t *Tool) CallAsync(ctx context.Context, input string) (string, error) {
	return "", errors.WithStack(tools.ErrAsyncNotSupported)
}

// formatTemp renders a temperature without trailing zeros, so the provider's
// 18 stays "18" and 18.5 stays "18.5".
func formatTemp(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
