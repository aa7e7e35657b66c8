package fetch

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/ratelimit"
)

// Response is a fetched body, decompressed when the server gzipped it.
type Response struct {
	Body        string
	ContentType string
	StatusCode  int
}

// OK reports a 200 response.
func (r Response) OK() bool {
	return r.StatusCode == http.StatusOK
}

type AssetFetcher interface {
	RateLimitedGet(ctx context.Context, url string) (Response, error)
	Request(ctx context.Context, url string, method string) (Response, error)
}

type assetFetcherImpl struct {
	client      *http.Client
	rateLimiter ratelimit.Limiter
}

// NewAssetFetcher returns a fetcher that sends at most ratePerMinute
// requests per minute through RateLimitedGet. A rate of zero or less
// disables the limit. Certificate errors are ignored and any TLS version is
// accepted, like the browser workers.
func NewAssetFetcher(ratePerMinute int) *assetFetcherImpl {
	c := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			ForceAttemptHTTP2:   true,
			TLSHandshakeTimeout: 30 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion:         tls.VersionTLS10,
				InsecureSkipVerify: true,
			},
		},
	}

	rateLimiter := ratelimit.NewUnlimited()
	if ratePerMinute > 0 {
		rateLimiter = ratelimit.New(ratePerMinute, ratelimit.Per(time.Minute))
	}

	return &assetFetcherImpl{
		client:      c,
		rateLimiter: rateLimiter,
	}
}

func (s *assetFetcherImpl) RateLimitedGet(ctx context.Context, url string) (Response, error) {
	s.rateLimiter.Take()

	return s.Request(ctx, url, http.MethodGet)
}

// Request is a regular HTTP request that handles GZIP and sends browser-like
// headers.
func (s *assetFetcherImpl) Request(ctx context.Context, url string, method string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return Response{}, err
	}

	req.Header.Set("accept", "text/html,text/css,*/*;q=0.8")
	req.Header.Set("accept-language", "en-GB,en-US;q=0.9,en;q=0.8")
	req.Header.Set("user-agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/136.0.0.0 Safari/537.36")
	req.Header.Set("accept-encoding", "gzip")

	resp, err := s.client.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	out := Response{
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, fmt.Errorf("failed to read body of %s: %w", url, err)
	}

	// Check if the response is gzipped, by header or by magic number
	isGzipped := strings.Contains(resp.Header.Get("Content-Encoding"), "gzip")
	if !isGzipped {
		isGzipped = len(body) > 2 && body[0] == 0x1f && body[1] == 0x8b
	}

	if isGzipped {
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return out, fmt.Errorf("failed to decompress %s: %w", url, err)
		}
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return out, fmt.Errorf("failed to decompress %s: %w", url, err)
		}
		body = decompressed
	}

	out.Body = string(body)
	return out, nil
}
