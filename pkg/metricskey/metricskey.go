package metricskey

import "github.com/effective-security/metrics"

// Stats
var (
	StatsToolCallsSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_succeeded",
		Help:         "stats_tool_calls_succeeded provides total tool calls succeeded",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_failed",
		Help:         "stats_tool_calls_failed provides total tool calls failed",
		RequiredTags: []string{"tool"},
	}

	StatsToolInputParseErrors = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_input_parse_errors",
		Help:         "stats_tool_input_parse_errors provides total tool input parse errors",
		RequiredTags: []string{"tool"},
	}

	StatsUpstreamRequestsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_upstream_requests_failed",
		Help:         "stats_upstream_requests_failed provides total upstream provider request failures",
		RequiredTags: []string{"tool"},
	}
)

// Perf
var (
	PerfToolCall = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_tool_call",
		Help:         "perf_tool_call provides duration of tool call",
		RequiredTags: []string{"tool"},
	}
)

// Metrics returns slice of metrics from this repo
// keep sorted by name
var Metrics = []*metrics.Describe{
	&PerfToolCall,
	&StatsToolCallsFailed,
	&StatsToolCallsSucceeded,
	&StatsToolInputParseErrors,
	&StatsUpstreamRequestsFailed,
}
