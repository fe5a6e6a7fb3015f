package telegram

import (
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestRetryTransportRetriesDialErrors(t *testing.T) {
	var calls atomic.Int32
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if calls.Add(1) < 3 {
			return nil, &net.OpError{Op: "dial", Net: "tcp", Err: assertErr("refused")}
		}
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	})
	client := BuildHTTPClient(HTTPClientOptions{Transport: rt, Retries: 3, RetryBackoff: time.Millisecond})

	req, err := http.NewRequest(http.MethodPost, "http://telegram.invalid/bot/getMe", strings.NewReader("a=1"))
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetryTransportStopsOnPermanentError(t *testing.T) {
	var calls atomic.Int32
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls.Add(1)
		return nil, assertErr("tls: bad certificate")
	})
	client := BuildHTTPClient(HTTPClientOptions{Transport: rt, RetryBackoff: time.Millisecond})

	_, err := client.Get("http://telegram.invalid/")
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
