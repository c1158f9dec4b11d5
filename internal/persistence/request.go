package persistence

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
)

type reqConfig struct {
	Method  string
	Url     string
	Headers []string
	Body    []byte
}

// StatusError is returned when the upstream answers with a status code other
// than the expected one. Body holds the raw response for callers that know
// how to decode the upstream's error shape.
type StatusError struct {
	Code int
	Body []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected response status code %d", e.Code)
}

func request[T any](ctx context.Context, client *http.Client, config reqConfig, expectedResCode int) (*T, error) {
	req, err := http.NewRequestWithContext(ctx, config.Method, config.Url, bytes.NewBuffer(config.Body))

	if err != nil {
		return nil, err
	}

	for i := 0; i < len(config.Headers); i++ {
		headerKV := strings.SplitN(config.Headers[i], ":", 2)
		if len(headerKV) != 2 {
			return nil, fmt.Errorf("malformed header %q", headerKV[0])
		}
		req.Header.Add(strings.TrimSpace(headerKV[0]), strings.TrimSpace(headerKV[1]))
	}

	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)

	if err != nil {
		return nil, err
	}

	body, err := Read(resp.Body)

	if err != nil {
		return nil, err
	}

	if resp.StatusCode != expectedResCode {
		return nil, &StatusError{Code: resp.StatusCode, Body: body}
	}

	return ReadJSON[T](body)
}
