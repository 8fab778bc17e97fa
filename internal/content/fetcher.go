// Package content downloads media message bodies from the platform's
// content endpoint and records where they were stored.
package content

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/mattjoyce/linegate/internal/line"
	"github.com/mattjoyce/linegate/internal/log"
	"github.com/mattjoyce/linegate/internal/store"
)

const (
	defaultTimeout = 30 * time.Second

	// maxContentBytes caps a single download.
	maxContentBytes = int64(64 << 20)
)

// Fetcher is the file-fetch handler for image/audio/file messages: it
// downloads the message content by id and writes a message record with
// the stored path.
type Fetcher struct {
	endpoint string
	token    string
	dir      string
	store    *store.Store
	http     *http.Client
	logger   *slog.Logger
}

// New creates a Fetcher storing downloads under dir.
func New(endpoint, accessToken, dir string, st *store.Store) (*Fetcher, error) {
	if dir == "" {
		return nil, fmt.Errorf("content dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create content dir: %w", err)
	}
	return &Fetcher{
		endpoint: endpoint,
		token:    accessToken,
		dir:      dir,
		store:    st,
		http:     &http.Client{Timeout: defaultTimeout},
		logger:   log.WithComponent("content"),
	}, nil
}

// Fetch downloads the content of msg and persists a record pointing at
// the stored file. Every failure is returned as a HandleStatus; transport
// failures are not retried.
func (f *Fetcher) Fetch(ctx context.Context, msg line.Message) line.HandleStatus {
	path, err := f.download(ctx, msg)
	if err != nil {
		f.logger.Error("content fetch failed", "message_id", msg.ID, "error", err)
		return line.Failure(line.DatabaseConnectionError)
	}

	user, err := f.store.FindUserByLineID(ctx, msg.OwnerID)
	if err != nil {
		return line.Failure(line.DatabaseReadError)
	}
	if user == nil {
		user, err = f.store.CreateUser(ctx, msg.OwnerID)
		if err != nil {
			return line.Failure(line.UserCreateError)
		}
	}

	err = f.store.CreateMessageRecord(ctx, store.MessageRecord{
		UserID:     user.ID,
		LineUserID: msg.OwnerID,
		Message:    msg.Text,
		Filename:   msg.Filename,
		Filepath:   &path,
		Timestamp:  msg.Timestamp,
	})
	if err != nil {
		f.logger.Error("content record write failed", "message_id", msg.ID, "error", err)
		return line.Failure(line.DatabaseWriteError)
	}

	f.logger.Info("content stored", "message_id", msg.ID, "path", path)
	return line.OK()
}

// download streams the content body to a uniquely named file and returns
// its path.
func (f *Fetcher) download(ctx context.Context, msg line.Message) (string, error) {
	url := fmt.Sprintf("%s/%s/content", f.endpoint, msg.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build content request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+f.token)

	resp, err := f.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("content call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("content endpoint returned %d", resp.StatusCode)
	}

	name := uuid.NewString()
	if msg.Filename != "" && msg.Filename != line.SentinelFilename {
		name += filepath.Ext(msg.Filename)
	}
	path := filepath.Join(f.dir, name)

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create content file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, io.LimitReader(resp.Body, maxContentBytes)); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write content file: %w", err)
	}
	return path, nil
}
