package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"

	"mbook/config"
	"mbook/misc"
)

const (
	// fetchAttempts is total number of attempts for every remote resource.
	fetchAttempts = 2
	// fetchDelay is a pause between attempts.
	fetchDelay = 500 * time.Millisecond
)

var errTooLarge = errors.New("resource exceeds size limit")

type fetcher struct {
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
	token    config.SecretString
	delay    time.Duration
	log      *zap.Logger
}

func newFetcher(conf *config.ImagesConfig, log *zap.Logger) *fetcher {
	return &fetcher{
		client:   &http.Client{},
		timeout:  conf.FetchTimeout,
		maxBytes: conf.MaxBytes,
		token:    conf.AuthToken,
		delay:    fetchDelay,
		log:      log,
	}
}

// get downloads resource. Transport errors and unsuccessful responses are
// retried once, oversized bodies are not.
func (f *fetcher) get(ctx context.Context, ref string) ([]byte, string, error) {
	type result struct {
		data []byte
		mime string
	}

	res, err := retry.DoWithData(
		func() (result, error) {
			data, mime, err := f.attempt(ctx, ref)
			return result{data, mime}, err
		},
		retry.Context(ctx),
		retry.Attempts(fetchAttempts),
		retry.Delay(f.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			f.log.Debug("Fetch failed, retrying", zap.String("ref", shorten(ref)), zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		return nil, "", err
	}
	return res.data, res.mime, nil
}

func (f *fetcher) attempt(ctx context.Context, ref string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, "", retry.Unrecoverable(err)
	}
	req.Header.Set("User-Agent", misc.GetAppName()+"/"+misc.GetVersion())
	if len(f.token) > 0 {
		req.Header.Set("Authorization", "Bearer "+f.token.Reveal())
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("unexpected response status %s", resp.Status)
	}
	if resp.ContentLength > f.maxBytes {
		return nil, "", retry.Unrecoverable(fmt.Errorf("%w: %d bytes", errTooLarge, resp.ContentLength))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > f.maxBytes {
		return nil, "", retry.Unrecoverable(fmt.Errorf("%w: more than %d bytes", errTooLarge, f.maxBytes))
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// shorten makes reference suitable for logging, data URLs could be megabytes long.
func shorten(ref string) string {
	const limit = 80
	if r := []rune(ref); len(r) > limit {
		return string(r[:limit-3]) + "..."
	}
	return ref
}
