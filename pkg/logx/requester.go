package logx

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-pkgz/requester/middleware"
	"github.com/samber/lo"
	"golang.org/x/exp/slog"
)

// RoundTripperOpts contains options for client logger.
type RoundTripperOpts struct {
	Level         slog.Level
	SecretHeaders []string
}

// LoggingRoundTripper logs every client request with its outcome.
func LoggingRoundTripper(lg *slog.Logger, opts RoundTripperOpts) middleware.RoundTripperHandler {
	return func(next http.RoundTripper) http.RoundTripper {
		return middleware.RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			headers := map[string]string{}
			for k, vals := range req.Header {
				if lo.Contains(opts.SecretHeaders, k) {
					headers[k] = "***"
					continue
				}
				headers[k] = strings.Join(vals, ",")
			}

			lg.LogAttrs(req.Context(), opts.Level, "request sent",
				slog.String("method", req.Method),
				slog.String("url", req.URL.String()),
				slog.Any("headers", headers),
			)

			start := time.Now()
			resp, err := next.RoundTrip(req)
			if err != nil {
				lg.LogAttrs(req.Context(), opts.Level, "request failed",
					slog.String("url", req.URL.String()),
					slog.Duration("elapsed", time.Since(start)),
					slog.Any("err", err),
				)
				return nil, err
			}

			lg.LogAttrs(req.Context(), opts.Level, "response received",
				slog.String("url", req.URL.String()),
				slog.Int("status", resp.StatusCode),
				slog.Duration("elapsed", time.Since(start)),
			)

			return resp, nil
		})
	}
}
