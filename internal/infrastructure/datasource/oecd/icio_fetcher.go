// Package oecd loads the inter-country input-output table, preferring the
// local CSV cache and falling back to a fetch-unzip-cache of the fixed OECD
// archive.  The cache file is bit-compatible with the published ICIO layout
// so external fixtures remain usable.
package oecd

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/turtacn/EcoFootprint-Intelligence/internal/domain/icio"
	"github.com/turtacn/EcoFootprint-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EcoFootprint-Intelligence/pkg/errors"
)

// Fetcher materializes the ICIO table from cache or the remote archive.
type Fetcher struct {
	archiveURL string
	cachePath  string
	httpClient *http.Client
	retries    int
	log        logging.Logger
}

// NewFetcher builds a Fetcher.  cachePath names the extracted CSV on disk
// (and the archive member to extract, by base name).
func NewFetcher(archiveURL, cachePath string, timeout time.Duration, retries int, log logging.Logger) *Fetcher {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Fetcher{
		archiveURL: archiveURL,
		cachePath:  cachePath,
		httpClient: &http.Client{Timeout: timeout},
		retries:    retries,
		log:        log.Named("oecd"),
	}
}

// LoadTable parses the cached CSV if present, otherwise fetches the archive,
// extracts the CSV member next to the cache path and parses that.
func (f *Fetcher) LoadTable(ctx context.Context) (*icio.Table, error) {
	file, err := os.Open(f.cachePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.Wrap(err, errors.ErrCodeInternal,
				"failed to open ICIO cache file").WithDetail(f.cachePath)
		}
		if err := f.fetchAndCache(ctx); err != nil {
			return nil, err
		}
		if file, err = os.Open(f.cachePath); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal,
				"ICIO cache file missing after extraction").WithDetail(f.cachePath)
		}
	} else {
		f.log.Debug("using cached ICIO table", logging.String("path", f.cachePath))
	}
	defer file.Close()

	return icio.ParseCSV(file)
}

// fetchAndCache downloads the ZIP archive with bounded retries and extracts
// the CSV member to the cache path via a temp file and rename, so a failed
// extraction never leaves a truncated cache behind.
func (f *Fetcher) fetchAndCache(ctx context.Context) error {
	f.log.Info("ICIO cache miss, fetching archive", logging.String("url", f.archiveURL))

	var payload []byte
	var lastErr error
	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return errors.Wrap(ctx.Err(), errors.ErrCodeTimeout, "ICIO fetch cancelled")
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.archiveURL, nil)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to build ICIO request")
		}
		resp, err := f.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
			continue
		}
		if readErr != nil {
			lastErr = readErr
			continue
		}
		payload = body
		break
	}
	if payload == nil {
		return errors.Wrap(lastErr, errors.ErrCodeDataSourceUnavailable,
			"ICIO archive fetch failed after retries").WithDetail(f.archiveURL)
	}

	archive, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDataSourceParseError,
			"ICIO archive is not a valid ZIP")
	}

	member, err := findCSVMember(archive, filepath.Base(f.cachePath))
	if err != nil {
		return err
	}

	src, err := member.Open()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDataSourceParseError,
			"failed to open archive member").WithDetail(member.Name)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(filepath.Dir(f.cachePath), ".icio-*")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create temp cache file")
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to extract ICIO CSV")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to close temp cache file")
	}
	if err := os.Rename(tmp.Name(), f.cachePath); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to move ICIO CSV into cache")
	}

	f.log.Info("ICIO table cached",
		logging.String("member", member.Name),
		logging.String("path", f.cachePath),
	)
	return nil
}

// findCSVMember prefers the member matching the cache base name, falling back
// to the first CSV in the archive.
func findCSVMember(archive *zip.Reader, wanted string) (*zip.File, error) {
	var firstCSV *zip.File
	for _, member := range archive.File {
		if filepath.Base(member.Name) == wanted {
			return member, nil
		}
		if firstCSV == nil && strings.EqualFold(filepath.Ext(member.Name), ".csv") {
			firstCSV = member
		}
	}
	if firstCSV != nil {
		return firstCSV, nil
	}
	return nil, errors.New(errors.ErrCodeDataSourceParseError,
		"ICIO archive contains no CSV member").WithDetail(wanted)
}
