package provider

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cavaliercoder/grab"
	"github.com/earthscan/s3loader/service"
	"github.com/earthscan/s3loader/service/log"
	"github.com/mholt/archiver"
)

// retryDelay is the pause between two download attempts of the same product
const retryDelay = time.Second

func fmtBytes(bytes int64) string {
	v := float64(bytes)
	switch {
	case v > 1<<30:
		return fmt.Sprintf("%.2fGo", v/(1<<30))
	case v > 1<<20:
		return fmt.Sprintf("%.2fMo", v/(1<<20))
	case v > 1<<10:
		return fmt.Sprintf("%.2fko", v/(1<<10))
	default:
		return fmt.Sprintf("%.2fo", v)
	}
}

func displayProgress(ctx context.Context, prefix string, resp *grab.Response, progressPeriod float64) {
	t := time.NewTicker(time.Second)
	defer t.Stop()

	progress, lastBytes, seconds := 0.0, int64(0), int64(0)
	for {
		select {
		case <-t.C:
			seconds++
			if resp.Progress() > progress {
				log.Logger(ctx).Sugar().Debugf("%s: %.2f%% %s/%s (%s/s)", prefix, 100*resp.Progress(), fmtBytes(resp.BytesComplete()), fmtBytes(resp.Size), fmtBytes((resp.BytesComplete()-lastBytes)/seconds))
				seconds = 0
				progress += progressPeriod
				lastBytes = resp.BytesComplete()
			}

		case <-resp.Done:
			return
		}
	}
}

// fetchRetry downloads url into stagingPath, retrying up to nbTries times.
// A permanent error (e.g. 404) fails identically on every attempt and ends
// the loop at once. The content is loaded in memory and the staging file is
// removed before returning, whatever the outcome. configure, if not nil, is
// applied to the underlying HTTP request (auth, headers).
func fetchRetry(ctx context.Context, client *grab.Client, url, stagingPath string, configure func(*http.Request), nbTries int) ([]byte, int, error) {
	var content []byte
	var permErr error
	tried := 0
	defer os.Remove(stagingPath)

	err := service.Retriable(ctx, func() error {
		tried++
		req, err := grab.NewRequest(stagingPath, url)
		if err != nil {
			return fmt.Errorf("fetchRetry.NewRequest: %w", err)
		}
		req = req.WithContext(ctx)
		req.NoResume = true
		if configure != nil {
			configure(req.HTTPRequest)
		}

		if err := download(ctx, client, req, filepath.Base(stagingPath)); err != nil {
			err = fmt.Errorf("fetchRetry.%w", err)
			if !service.Temporary(err) {
				permErr = err
				return nil
			}
			return err
		}
		if content, err = os.ReadFile(stagingPath); err != nil {
			return service.MakeTemporary(fmt.Errorf("fetchRetry.ReadFile: %w", err))
		}
		return nil
	}, retryDelay, nbTries)
	if permErr != nil {
		return nil, tried, permErr
	}
	if err != nil {
		return nil, tried, err
	}
	return content, tried, nil
}

// download a file with display every 5%
func download(ctx context.Context, client *grab.Client, req *grab.Request, displayPrefix string) error {
	resp := client.Do(req)

	displayProgress(ctx, displayPrefix, resp, 0.05)

	if err := resp.Err(); err != nil {
		err = fmt.Errorf("download[%s]: %w", req.URL(), err)
		if resp.HTTPResponse == nil {
			return service.MakeTemporary(err)
		}
		switch resp.HTTPResponse.StatusCode {
		case 408, 429, 500, 501, 502, 503, 504:
			return service.MakeTemporary(err)
		default:
			return err
		}
	}
	return nil
}

// Unarchive extracts a zip file into localDir with a basic check.
// All errors are temporary.
func Unarchive(localZip, localDir string) error {
	tmpdir, err := os.MkdirTemp(localDir, filepath.Base(localZip))
	if err != nil {
		return service.MakeTemporary(err)
	}
	defer os.RemoveAll(tmpdir)
	if err := archiver.Unarchive(localZip, tmpdir); err != nil {
		return service.MakeTemporary(err)
	}
	files, err := os.ReadDir(tmpdir)
	if err != nil {
		return service.MakeTemporary(err)
	}
	if len(files) == 0 {
		return service.MakeTemporary(fmt.Errorf("empty zip"))
	}
	for _, f := range files {
		os.Rename(filepath.Join(tmpdir, f.Name()), filepath.Join(localDir, f.Name()))
	}
	return nil
}
