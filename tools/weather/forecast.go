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
	"github.com/invopop/jsonschema"
	"github.com/tidwall/gjson"
	"github.com/tripkit/tripkit/config"
	"github.com/tripkit/tripkit/pkg/llmutils"
	"github.com/tripkit/tripkit/pkg/metricskey"
	"github.com/tripkit/tripkit/pkg/schema"
	"github.com/tripkit/tripkit/tools"
)

const ForecastToolName = "WeatherForecastTool"

// ForecastRequest represents the forecast tool input.
type ForecastRequest struct {
	City string `json:"city" yaml:"city" validate:"required" jsonschema:"title=City,description=Name of the city"`
	Days int    `json:"days,omitempty" yaml:"days,omitempty" validate:"omitempty,min=1" jsonschema:"title=Days,description=Number of days from current date till which the forecast is required,default=1"`
}

// ForecastDay is a single day of the forecast.
type ForecastDay struct {
	Date      string  `json:"date" yaml:"date"`
	MaxTempC  float64 `json:"maxtemp_c" yaml:"maxtemp_c"`
	MinTempC  float64 `json:"mintemp_c" yaml:"mintemp_c"`
	Condition string  `json:"condition" yaml:"condition"`
}

// ForecastResult holds the multi-day forecast for a city.
type ForecastResult struct {
	City string        `json:"city" yaml:"city"`
	Days []ForecastDay `json:"days" yaml:"days"`
}

func (r *ForecastResult) String() string {
	clauses := make([]string, len(r.Days))
	for i, d := range r.Days {
		clauses[i] = fmt.Sprintf("On: %s, max temp: %s°C, min temp: %s°C, condition: %s",
			d.Date, formatTemp(d.MaxTempC), formatTemp(d.MinTempC), d.Condition)
	}
	return strings.Join(clauses, ". ")
}

// ForecastTool is a tool that reports the weather forecast for a given city.
type ForecastTool struct {
	name        string
	description string
	funcParams  *jsonschema.Schema

	apiKey     string
	baseURL    string
	httpClient *http.Client
	callback   tools.Callback
}

var (
	_ tools.Tool[ForecastRequest, ForecastResult] = (*ForecastTool)(nil)
	_ tools.AsyncCaller                           = (*ForecastTool)(nil)
)

// NewForecast creates the forecast tool. Shares the weather credential with
// the current-conditions tool; a missing credential fails here.
func NewForecast(cfg *config.Config) (*ForecastTool, error) {
	if cfg == nil || cfg.WeatherAPIKey == "" {
		return nil, errors.New("WEATHER_API_KEY is not set")
	}

	sc, err := schema.New(reflect.TypeOf(ForecastRequest{}))
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create schema")
	}
	tool := &ForecastTool{
		name:        ForecastToolName,
		description: "Tool to search for weather forecast for a given city.",
		funcParams:  sc.Parameters,
		apiKey:      cfg.WeatherAPIKey,
		baseURL:     DefaultBaseURL,
		httpClient:  http.DefaultClient,
	}
	return tool, nil
}

func (t *ForecastTool) WithBaseURL(baseURL string) *ForecastTool {
	t.baseURL = baseURL
	return t
}

func (t *ForecastTool) WithHTTPClient(client *http.Client) *ForecastTool {
	t.httpClient = client
	return t
}

func (t *ForecastTool) WithCallback(cb tools.Callback) *ForecastTool {
	t.callback = cb
	return t
}

func (t *ForecastTool) Name() string {
	return t.name
}

func (t *ForecastTool) Description() string {
	return t.description
}

func (t *ForecastTool) Parameters() any {
	return t.funcParams
}

func (t *ForecastTool) Run(ctx context.Context, req *ForecastRequest) (*ForecastResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, errors.WithMessage(err, "invalid request")
	}

	city, _, _ := strings.Cut(req.City, ",")
	days := req.Days
	if days == 0 {
		days = 1
	}

	// days is forwarded verbatim, the provider enforces its own upper bound
	vals := url.Values{}
	vals.Set("key", t.apiKey)
	vals.Set("q", city)
	vals.Set("days", strconv.Itoa(days))
	vals.Set("aqi", "yes")

	body, err := tools.FetchJSON(ctx, t.httpClient, t.baseURL+"/forecast.json?"+vals.Encode())
	if err != nil {
		metricskey.StatsUpstreamRequestsFailed.IncrCounter(1, t.name)
		return nil, tools.UpstreamError(err, "failed to fetch forecast for %s", city)
	}

	fcDays := gjson.GetBytes(body, "forecast.forecastday")
	if !fcDays.Exists() || !fcDays.IsArray() {
		err = errors.New("unexpected response: missing forecast days")
		return nil, tools.UpstreamError(err, "failed to fetch forecast for %s", city)
	}

	res := &ForecastResult{City: city}
	for _, fc := range fcDays.Array() {
		date := fc.Get("date")
		maxTemp := fc.Get("day.maxtemp_c")
		minTemp := fc.Get("day.mintemp_c")
		cond := fc.Get("day.condition.text")
		if !date.Exists() || !maxTemp.Exists() || !minTemp.Exists() || !cond.Exists() {
			err = errors.New("unexpected response: incomplete forecast day")
			return nil, tools.UpstreamError(err, "failed to fetch forecast for %s", city)
		}
		res.Days = append(res.Days, ForecastDay{
			Date:      date.String(),
			MaxTempC:  maxTemp.Float(),
			MinTempC:  minTemp.Float(),
			Condition: cond.String(),
		})
	}
	return res, nil
}

func (t *ForecastTool) Call(ctx context.Context, input string) (string, error) {
	defer metricskey.PerfToolCall.MeasureSince(time.Now(), t.name)
	if t.callback != nil {
		t.callback.OnToolStart(ctx, t, input)
	}

	var req ForecastRequest
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

// CallAsync fails immediately: the forecast tool is synchronous only.
func (t *ForecastTool) CallAsync(ctx context.Context, input string) (string, error) {
	return "", errors.WithStack(tools.ErrAsyncNotSupported)
}
