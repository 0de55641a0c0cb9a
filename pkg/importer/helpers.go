// CLAUDE:SUMMARY Shared import utilities: HTTP download with retries and backoff, timestamped backup of a previous roster file, directory helper.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// maxAttempts bounds downloadFile retries.
const maxAttempts = 3

// retryBase is the first backoff delay; it doubles per attempt.
var retryBase = time.Second

// downloadFile downloads url to dest with retries and timeout. The file is
// written to a temporary name and renamed into place only when complete.
func downloadFile(ctx context.Context, url, dest string) error {
	client := &http.Client{Timeout: 10 * time.Minute}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBase << uint(attempt-1)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
			// 4xx other than 429 will not get better on retry.
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				break
			}
			continue
		}

		tmp := dest + ".part"
		f, err := os.Create(tmp)
		if err != nil {
			resp.Body.Close()
			return fmt.Errorf("create file: %w", err)
		}

		_, copyErr := io.Copy(f, resp.Body)
		resp.Body.Close()
		closeErr := f.Close()

		if copyErr != nil {
			os.Remove(tmp)
			lastErr = copyErr
			continue
		}
		if closeErr != nil {
			os.Remove(tmp)
			return closeErr
		}
		return os.Rename(tmp, dest)
	}
	return fmt.Errorf("download %s failed: %w", url, lastErr)
}

// backupFile moves an existing file aside, suffixing its base name with the
// file's modification time (data.gob -> data20260102150405.gob). It returns
// the new path, or "" when there was nothing to back up.
func backupFile(path string) (string, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	backup := base + info.ModTime().Format("20060102150405") + ext
	for n := 1; ; n++ {
		if _, err := os.Stat(backup); errors.Is(err, os.ErrNotExist) {
			break
		}
		backup = fmt.Sprintf("%s%s-%d%s", base, info.ModTime().Format("20060102150405"), n, ext)
	}
	if err := os.Rename(path, backup); err != nil {
		return "", fmt.Errorf("backup %s: %w", path, err)
	}
	return backup, nil
}

// ensureDir creates a directory if it doesn't exist.
func ensureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}
