package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"FieldVoice/pkg/errors"
	"FieldVoice/pkg/logger"
	"FieldVoice/pkg/scheduler"

	"go.uber.org/zap"
)

// Snapshotter copies the device's queue database into a backup directory on a
// cron schedule. A field device can lose its unsynced queue to a dying SD
// card; a recent copy keeps the recordings recoverable.
type Snapshotter struct {
	srcPath string
	destDir string
	keep    int
}

func NewSnapshotter(srcPath, destDir string) *Snapshotter {
	return &Snapshotter{srcPath: srcPath, destDir: destDir, keep: 7}
}

// Schedule registers the snapshot job on the given cron expression.
func (s *Snapshotter) Schedule(cr *scheduler.Cron, expr string) error {
	_, err := cr.AddWithCtx(expr, func(ctx context.Context) { s.Run() })
	if err != nil {
		return errors.Wrapf(err, "schedule snapshots on %q", expr)
	}
	return nil
}

// Run takes one snapshot and prunes old ones.
func (s *Snapshotter) Run() {
	dst, err := s.snapshot()
	if err != nil {
		logger.Warn("queue snapshot failed", zap.Error(err))
		return
	}
	logger.Info("queue snapshot written", zap.String("path", dst))
	if err := s.prune(); err != nil {
		logger.Warn("prune old snapshots failed", zap.Error(err))
	}
}

func (s *Snapshotter) snapshot() (string, error) {
	if err := os.MkdirAll(s.destDir, 0o755); err != nil {
		return "", errors.Wrap(err, "create backup directory")
	}
	dst := filepath.Join(s.destDir,
		fmt.Sprintf("queue_%s.db", time.Now().Format("20060102_150405")))

	src, err := os.Open(s.srcPath)
	if err != nil {
		return "", errors.Wrap(err, "open queue database")
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", errors.Wrap(err, "create snapshot file")
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		os.Remove(dst)
		return "", errors.Wrap(err, "copy queue database")
	}
	return dst, nil
}

// prune keeps the newest snapshots and deletes the rest.
func (s *Snapshotter) prune() error {
	matches, err := filepath.Glob(filepath.Join(s.destDir, "queue_*.db"))
	if err != nil {
		return err
	}
	if len(matches) <= s.keep {
		return nil
	}
	// names embed the timestamp, so lexical order is chronological
	sort.Strings(matches)
	for _, old := range matches[:len(matches)-s.keep] {
		if err := os.Remove(old); err != nil {
			return err
		}
	}
	return nil
}
