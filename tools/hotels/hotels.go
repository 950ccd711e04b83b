// Package hotels provides the hotel search tool backed by the SerpApi
// google_hotels engine. The result records are passed through as the
// provider returns them; only extracted_price is read for the budget filter.
package hotels

import (
	"context"
	"encoding/json"
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
	ToolName = "HotelTool"

	// DefaultBaseURL is the search aggregator endpoint prefix.
	DefaultBaseURL = "https://serpapi.com"
)

var validate = validator.New()

// Request represents the tool input.
type Request struct {
	City        string `json:"city" yaml:"city" validate:"required" jsonschema:"title=City,description=City or hotel name to be searched"`
	CheckIn     string `json:"check_in" yaml:"check_in" validate:"required,datetime=2006-01-02" jsonschema:"title=Check In,description=Date for checking in to the hotel\\, should be in the format YYYY-MM-DD"`
	CheckOut    string `json:"check_out" yaml:"check_out" validate:"required,datetime=2006-01-02" jsonschema:"title=Check Out,description=Date for checking out from the hotel\\, should be in the format YYYY-MM-DD"`
	NumOfAdults int    `json:"num_of_adults" yaml:"num_of_adults" validate:"required,min=1" jsonschema:"title=Number Of Adults,description=Number of adults on the trip"`
	Currency    string `json:"currency" yaml:"currency" validate:"required" jsonschema:"title=Currency,description=Currency in which the guests would pay\\, this would be the currency code"`
	Budget      int    `json:"budget,omitempty" yaml:"budget,omitempty" validate:"omitempty,gte=0" jsonschema:"title=Budget,description=Total budget for the hotels,default=0"`
}

// Result holds the matched hotel records, opaque as returned by the provider.
type Result struct {
	City   string            `json:"city" yaml:"city"`
	Hotels []json.RawMessage `json:"hotels" yaml:"hotels"`
}

func (r *Result) String() string {
	return llmutils.ToJSON(r.Hotels)
}

// Tool is a tool that searches hotels for the given city and dates.
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

// New creates the hotel tool. The SerpApi credential must be present in the
// config; a missing credential fails here, never at call time.
func New(cfg *config.Config) (*Tool, error) {
	if cfg == nil || cfg.SerpAPIKey == "" {
		return nil, errors.New("SERP_API_KEY is not set")
	}

	sc, err := schema.New(reflect.TypeOf(Request{}))
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create schema")
	}
	tool := &Tool{
		name:        ToolName,
		description: "Tool to respond with hotel recommendations for the given query.",
		funcParams:  sc.Parameters,
		apiKey:      cfg.SerpAPIKey,
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

	city, _, _ := strings.Cut(req.City, ",")

	vals := url.Values{}
	vals.Set("engine", "google_hotels")
	vals.Set("q", city)
	vals.Set("check_in_date", req.CheckIn)
	vals.Set("check_out_date", req.CheckOut)
	vals.Set("adults", strconv.Itoa(req.NumOfAdults))
	vals.Set("currency", req.Currency)
	vals.Set("gl", "us")
	vals.Set("hl", "en")
	vals.Set("api_key", t.apiKey)

	body, err := tools.FetchJSON(ctx, t.httpClient, t.baseURL+"/search.json?"+vals.Encode())
	if err != nil {
		metricskey.StatsUpstreamRequestsFailed.IncrCounter(1, t.name)
		return nil, tools.UpstreamError(err, "failed to fetch hotels for %s", city)
	}

	res := &Result{
		City:   city,
		Hotels: []json.RawMessage{},
	}

	// the sponsored results carry the price; an absent or empty list is a
	// valid empty result, not an error
	ads := gjson.GetBytes(body, "ads")
	if !ads.Exists() || !ads.IsArray() {
		return res, nil
	}

	for _, ad := range ads.Array() {
		if req.Budget != 0 {
			price := ad.Get("extracted_price")
			if !price.Exists() {
				err = errors.New("unexpected response: missing extracted_price")
				return nil, tools.UpstreamError(err, "failed to fetch hotels for %s", city)
			}
			// inclusive boundary: a hotel priced exactly at the budget matches
			if price.Float() > float64(req.Budget) {
				continue
			}
		}
		res.Hotels = append(res.Hotels, json.RawMessage(ad.Raw))
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

// CallAsync fails immediately: the hotel tool is synchronous only.
func (t *Tool) CallAsync(ctx context.Context, input string) (string, error) {
	return "", errors.WithStack(tools.ErrAsyncNotSupported)
}
