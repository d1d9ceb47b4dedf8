package common

import (
	"context"
	"io"
	"net/url"
	"os"

	"go.uber.org/zap"
)

// IsUrl reports whether s names a file:// or http(s):// resource rather than
// a bare path.
func IsUrl(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "file", "http", "https":
		return true
	}
	return false
}

// LoadFromFileOrHttpUrl reads a bare path, a file:// url or an http(s) url.
func LoadFromFileOrHttpUrl(ctx context.Context, log *zap.Logger, urlString string) ([]byte, error) {
	if !IsUrl(urlString) {
		return os.ReadFile(urlString)
	}
	u, err := url.Parse(urlString)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "file" {
		return os.ReadFile(u.Path)
	}
	res, err := RetryHttpGet(ctx, log, urlString)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	return io.ReadAll(res.Body)
}
