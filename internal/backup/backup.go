// Package backup snapshots the live SQLite database into a directory and
// keeps only the newest copies.
package backup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

const (
	filePrefix = "backup_"
	fileSuffix = ".db"
	nameLayout = "20060102_150405.000000"
)

// File describes one backup on disk.
type File struct {
	Name      string    `json:"nombre"`
	Path      string    `json:"ruta"`
	Size      int64     `json:"tamano"`
	CreatedAt time.Time `json:"fecha"`
}

type Manager struct {
	db     *sqlx.DB
	dir    string
	keep   int
	logger *slog.Logger
	now    func() time.Time
}

func NewManager(db *sqlx.DB, dir string, keep int, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{db: db, dir: dir, keep: keep, logger: logger, now: time.Now}
}

// Create writes a consistent copy of the database and prunes old copies.
func (m *Manager) Create(ctx context.Context) (File, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return File{}, fmt.Errorf("backup: create dir: %w", err)
	}
	now := m.now()
	name := filePrefix + now.Format(nameLayout) + fileSuffix
	path := filepath.Join(m.dir, name)

	if _, err := m.db.ExecContext(ctx, `VACUUM INTO ?`, path); err != nil {
		return File{}, fmt.Errorf("backup: vacuum into %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("backup: stat %s: %w", path, err)
	}
	m.logger.Info("backup created", slog.String("path", path), slog.Int64("bytes", info.Size()))

	if err := m.prune(); err != nil {
		m.logger.Warn("backup prune failed", slog.Any("error", err))
	}
	return File{Name: name, Path: path, Size: info.Size(), CreatedAt: now}, nil
}

// List returns the backups in dir, newest first.
func (m *Manager) List() ([]File, error) {
	entries, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		return []File{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("backup: read dir: %w", err)
	}
	files := []File{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
		created, err := time.ParseInLocation(nameLayout, stamp, time.Local)
		if err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("backup: stat %s: %w", name, err)
		}
		files = append(files, File{Name: name, Path: filepath.Join(m.dir, name), Size: info.Size(), CreatedAt: created})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].CreatedAt.After(files[j].CreatedAt) })
	return files, nil
}

func (m *Manager) prune() error {
	if m.keep <= 0 {
		return nil
	}
	files, err := m.List()
	if err != nil {
		return err
	}
	for _, f := range files[min(m.keep, len(files)):] {
		if err := os.Remove(f.Path); err != nil {
			return fmt.Errorf("backup: remove %s: %w", f.Name, err)
		}
		m.logger.Debug("backup removed", slog.String("path", f.Path))
	}
	return nil
}
