package common

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"
)

const httpAttempts = 5

// HttpError is a non-200 response. 403 and 404 count as not found.
type HttpError struct {
	code int
	body string
}

var _ NotFoundable = HttpError{}

// httpErrorFromRes reads up to 1KiB of the body. It does not close it.
func httpErrorFromRes(res *http.Response) HttpError {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
	return HttpError{code: res.StatusCode, body: string(body)}
}

func (e HttpError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("http status %d", e.code)
	}
	return fmt.Sprintf("http status %d: %q", e.code, e.body)
}

func (e HttpError) Code() int { return e.code }

func (e HttpError) IsNotFound() bool {
	return e.code == http.StatusNotFound || e.code == http.StatusForbidden
}

// RetryHttpGet fetches url, retrying transport errors and some 50x codes.
// On success the caller must close the response body.
func RetryHttpGet(ctx context.Context, log *zap.Logger, url string) (*http.Response, error) {
	if log == nil {
		log = zap.NewNop()
	}
	return retry.DoWithData(
		func() (*http.Response, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return nil, retry.Unrecoverable(err)
			}
			res, err := http.DefaultClient.Do(req)
			if err == nil && res.StatusCode != http.StatusOK {
				err = httpErrorFromRes(res)
				res.Body.Close()
			}
			return ValOrErr(res, err)
		},
		retry.Context(ctx),
		retry.Attempts(httpAttempts),
		retry.LastErrorOnly(true),
		retry.Delay(time.Second),
		retry.RetryIf(func(err error) bool {
			// retry on err or some 50x codes
			if status, ok := err.(HttpError); ok {
				switch status.Code() {
				case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
					return true
				default:
					return false
				}
			} else if IsContextError(err) {
				return false
			}
			return true
		}),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("http error, retrying", zap.String("url", url), zap.Uint("attempt", n), zap.Error(err))
		}))
}
