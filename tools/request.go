package tools

import (
	"context"
	"io"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"
)

// FetchJSON performs the single GET round trip a tool makes and returns the
// response body. A non-200 status or a payload that is not valid JSON is an
// error; callers wrap it with UpstreamError.
func FetchJSON(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected status: %s", resp.Status)
	}
	if !gjson.ValidBytes(body) {
		return nil, errors.New("invalid JSON response")
	}
	return body, nil
}
