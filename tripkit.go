// Package tripkit assembles the travel tools for an LLM agent: current
// weather, weather forecast, hotel search, and currency conversion. Each
// tool validates its input, performs a single GET against its provider, and
// renders the response for the agent. The invoking orchestrator is out of
// scope here.
package tripkit

import (
	"github.com/cockroachdb/errors"
	"github.com/tripkit/tripkit/config"
	"github.com/tripkit/tripkit/tools"
	"github.com/tripkit/tripkit/tools/currency"
	"github.com/tripkit/tripkit/tools/hotels"
	"github.com/tripkit/tripkit/tools/weather"
)

// New creates the full travel toolset from the given config. Construction
// fails on the first tool whose credential is missing.
func New(cfg *config.Config) ([]tools.ITool, error) {
	wt, err := weather.New(cfg)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create weather tool")
	}
	ft, err := weather.NewForecast(cfg)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create forecast tool")
	}
	ht, err := hotels.New(cfg)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create hotel tool")
	}
	ct, err := currency.New(cfg)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create currency tool")
	}
	return []tools.ITool{wt, ft, ht, ct}, nil
}
