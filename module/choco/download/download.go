// Package download fetches release installers over HTTP with bounded,
// fixed-delay retries.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"

	"github.com/nupdate/nupdate/module/choco/types"
	"github.com/nupdate/nupdate/util/common/errors"
	"github.com/nupdate/nupdate/util/common/fileutil"
	"github.com/nupdate/nupdate/util/common/progress"
)

const (
	DefaultAttempts = 5
	DefaultDelay    = 2 * time.Second

	// requestTimeout caps a single attempt, headers to last body byte.
	requestTimeout = 5 * time.Minute
)

// Fetcher downloads release installers into a local directory.
type Fetcher struct {
	dir      string
	attempts int
	client   *retryablehttp.Client
}

// NewFetcher returns a Fetcher that retries each download up to attempts
// times, waiting delay between tries. Zero values fall back to the
// defaults.
func NewFetcher(dir string, attempts int, delay time.Duration) *Fetcher {
	if attempts < 1 {
		attempts = DefaultAttempts
	}
	if delay <= 0 {
		delay = DefaultDelay
	}

	client := retryablehttp.NewClient()
	client.RetryMax = attempts - 1
	// Equal wait bounds turn the default backoff into a fixed delay.
	client.RetryWaitMin = delay
	client.RetryWaitMax = delay
	client.HTTPClient.Timeout = requestTimeout
	client.Logger = retryLogger{}

	return &Fetcher{
		dir:      dir,
		attempts: attempts,
		client:   client,
	}
}

// Fetch retrieves rawURL into the fetcher's directory and returns the
// path of the written file. Destination names carry the variant role, a
// timestamp and a random suffix, so repeated runs never collide.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, role types.Role) (string, error) {
	jobID := uuid.New().String()
	logger := log.With().
		Str("job_id", jobID).
		Str("role", string(role)).
		Str("url", rawURL).
		Logger()

	if err := fileutil.EnsureDir(f.dir); err != nil {
		return "", err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", errors.NewDownloadError(rawURL, 0, err)
	}

	logger.Info().Msg("Starting installer download")
	startTime := time.Now()

	resp, err := f.client.Do(req)
	if err != nil {
		logger.Error().Err(err).Msg("Installer download failed")
		return "", errors.NewDownloadError(rawURL, f.attempts, err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return "", errors.NewDownloadError(rawURL, 1, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	dest := filepath.Join(f.dir, destName(rawURL, role))
	out, err := os.Create(dest)
	if err != nil {
		resp.Body.Close()
		return "", errors.NewFileError(dest, "create", err)
	}
	defer out.Close()

	body := progress.ReadCloser(resp.ContentLength, resp.Body, filepath.Base(dest))
	defer body.Close()

	written, err := io.Copy(out, body)
	if err != nil {
		return "", errors.NewFileError(dest, "write", err)
	}

	if !fileutil.IsFile(dest) {
		return "", errors.NewFileError(dest, "verify", errors.ErrNotFound)
	}

	logger.Info().
		Dur("duration", time.Since(startTime)).
		Int64("bytes", written).
		Str("path", dest).
		Msg("Completed installer download")

	return dest, nil
}

// destName builds a collision free file name for a fetched installer,
// keeping the URL's extension so the installer type stays recognizable.
func destName(rawURL string, role types.Role) string {
	ext := ".msi"
	if u, err := url.Parse(rawURL); err == nil {
		if e := path.Ext(u.Path); e != "" {
			ext = e
		}
	}

	stamp := time.Now().UTC().Format("20060102_150405")
	suffix := uuid.New().String()[:8]

	return fmt.Sprintf("%s_%s_%s%s", role, stamp, suffix, ext)
}

// retryLogger adapts the retry client's internal logging to zerolog, so
// per-attempt messages follow the --verbose setting.
type retryLogger struct{}

func (retryLogger) Error(msg string, keysAndValues ...interface{}) {
	log.Error().Fields(keysAndValues).Msg(msg)
}

func (retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	log.Warn().Fields(keysAndValues).Msg(msg)
}

func (retryLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Info().Fields(keysAndValues).Msg(msg)
}

func (retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg(msg)
}
