package apiclient

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

// Response is a fully buffered upstream response. Buffering keeps the
// retry-after-refresh path simple and lets callers decode the body more than
// once.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status code is in the 2xx range.
func (r *Response) OK() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

// Unauthorized reports whether the upstream answered 401.
func (r *Response) Unauthorized() bool {
	return r.StatusCode == http.StatusUnauthorized
}

// DecodeJSON unmarshals the buffered body into v.
func (r *Response) DecodeJSON(v any) error {
	return errors.Wrap(json.Unmarshal(r.Body, v), "[Response.DecodeJSON] unmarshalling body")
}

func readResponse(httpResp *http.Response) (*Response, error) {
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "[readResponse] reading response body")
	}
	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
	}, nil
}
