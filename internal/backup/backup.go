// Package backup takes SQLite snapshots, optionally encrypts them and ships
// them to S3-compatible storage on a daily schedule.
package backup

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "modernc.org/sqlite"

	"github.com/Kauanrodrigues01/academy/internal/metrics"
	"github.com/Kauanrodrigues01/academy/internal/model"
	"github.com/Kauanrodrigues01/academy/internal/store"
)

const keyPrefix = "backups/"

var (
	ErrDisabled = errors.New("backup not configured: S3 credentials missing")
	ErrRunning  = errors.New("a backup is already running")
	ErrNotFound = errors.New("backup not found")
)

type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	// Passphrase enables encryption when set.
	Passphrase    string
	Hour          int
	RetentionDays int
	Location      *time.Location
}

func (c Config) enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

type Status struct {
	State      State      `json:"state"`
	LastBackup *time.Time `json:"last_backup,omitempty"`
	Error      string     `json:"error,omitempty"`
}

type Manager struct {
	mu      sync.RWMutex
	cfg     Config
	status  Status
	lastDay string

	db      *sql.DB
	backups *store.BackupStore
	client  s3Client
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

func NewManager(cfg Config, db *sql.DB, m *metrics.Metrics, logger *slog.Logger) *Manager {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 30
	}
	mgr := &Manager{
		cfg:     cfg,
		db:      db,
		backups: store.NewBackupStore(db),
		metrics: m,
		logger:  logger.With("component", "backup"),
		now:     time.Now,
		status:  Status{State: StateDisabled},
	}
	if cfg.enabled() {
		mgr.client = newS3Client(cfg)
		mgr.status.State = StateIdle
		if last, err := mgr.backups.LatestCompleted(); err != nil {
			mgr.logger.Warn("load last backup", "error", err)
		} else if last != nil && last.CompletedAt != nil {
			mgr.status.LastBackup = last.CompletedAt
		}
	}
	return mgr
}

func newS3Client(cfg Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
}

// Start runs the daily schedule until ctx is cancelled. It does nothing when
// S3 is not configured.
func (m *Manager) Start(ctx context.Context) {
	if m.Status().State == StateDisabled {
		m.logger.Info("backups disabled, S3 not configured")
		return
	}
	m.mu.Lock()
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	m.mu.Unlock()

	m.logger.Info("backup schedule started", "hour", m.cfg.Hour, "encrypted", m.cfg.Passphrase != "")

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.checkSchedule(ctx)
			}
		}
	}()
}

func (m *Manager) Stop() {
	m.mu.RLock()
	cancel, done := m.cancel, m.done
	m.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// checkSchedule runs at most one backup per local day, at the configured hour.
func (m *Manager) checkSchedule(ctx context.Context) {
	now := m.now().In(m.cfg.Location)
	day := now.Format("2006-01-02")

	m.mu.Lock()
	due := now.Hour() == m.cfg.Hour && m.lastDay != day
	if due {
		m.lastDay = day
	}
	m.mu.Unlock()
	if !due {
		return
	}

	if _, err := m.Run(ctx); err != nil {
		m.logger.Error("scheduled backup failed", "error", err)
	}
	if err := m.Cleanup(ctx); err != nil {
		m.logger.Error("backup cleanup failed", "error", err)
	}
}

// Run snapshots the database and uploads it.
func (m *Manager) Run(ctx context.Context) (b *model.Backup, err error) {
	m.mu.Lock()
	client, bucket := m.client, m.cfg.Bucket
	if client == nil {
		m.mu.Unlock()
		return nil, ErrDisabled
	}
	if m.status.State == StateRunning {
		m.mu.Unlock()
		return nil, ErrRunning
	}
	last := m.status.LastBackup
	m.status = Status{State: StateRunning, LastBackup: last}
	m.mu.Unlock()

	start := m.now()
	defer func() {
		m.metrics.JobRun("backup", err)
		if err != nil {
			m.setStatus(Status{State: StateError, LastBackup: last, Error: err.Error()})
		}
	}()

	filename := "academy-" + start.UTC().Format("20060102T150405Z") + ".db"
	if m.cfg.Passphrase != "" {
		filename += ".enc"
	}
	record, err := m.backups.Create(filename, keyPrefix+filename)
	if err != nil {
		return nil, fmt.Errorf("create backup record: %w", err)
	}
	fail := func(err error) (*model.Backup, error) {
		if uerr := m.backups.UpdateStatus(record.ID, model.BackupStatusFailed, err.Error()); uerr != nil {
			m.logger.Error("mark backup failed", "id", record.ID, "error", uerr)
		}
		return nil, err
	}

	data, err := m.snapshot(ctx)
	if err != nil {
		return fail(err)
	}
	if m.cfg.Passphrase != "" {
		if data, err = Encrypt(data, m.cfg.Passphrase); err != nil {
			return fail(fmt.Errorf("encrypt: %w", err))
		}
	}

	if err := m.backups.UpdateStatus(record.ID, model.BackupStatusUploading, ""); err != nil {
		return fail(err)
	}
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(record.S3Key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fail(fmt.Errorf("upload to s3: %w", err))
	}

	if err := m.backups.UpdateCompleted(record.ID, int64(len(data))); err != nil {
		return nil, err
	}
	done := m.now()
	m.setStatus(Status{State: StateIdle, LastBackup: &done})
	m.logger.Info("backup completed", "key", record.S3Key, "bytes", len(data), "duration", done.Sub(start))

	return m.backups.GetByID(record.ID)
}

// snapshot copies the live database with VACUUM INTO, which gives a
// consistent file without stopping writers.
func (m *Manager) snapshot(ctx context.Context) ([]byte, error) {
	dir, err := os.MkdirTemp("", "academy-backup-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "snapshot.db")
	if _, err := m.db.ExecContext(ctx, `VACUUM INTO ?`, path); err != nil {
		return nil, fmt.Errorf("vacuum into: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return data, nil
}

// Restore downloads backup id, checks it and writes it to dstPath. The
// server must not be running against dstPath.
func (m *Manager) Restore(ctx context.Context, id int64, dstPath string) error {
	m.mu.RLock()
	client, bucket := m.client, m.cfg.Bucket
	m.mu.RUnlock()
	if client == nil {
		return ErrDisabled
	}

	record, err := m.backups.GetByID(id)
	if err != nil {
		return err
	}
	if record == nil || record.Status != model.BackupStatusCompleted {
		return ErrNotFound
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(record.S3Key),
	})
	if err != nil {
		return fmt.Errorf("download from s3: %w", err)
	}
	data, err := io.ReadAll(out.Body)
	out.Body.Close()
	if err != nil {
		return fmt.Errorf("read download: %w", err)
	}

	if IsEncrypted(data) {
		if m.cfg.Passphrase == "" {
			return fmt.Errorf("backup %d is encrypted but no passphrase is configured", id)
		}
		if data, err = Decrypt(data, m.cfg.Passphrase); err != nil {
			return err
		}
	}

	tmp := dstPath + ".restore"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write restore file: %w", err)
	}
	defer os.Remove(tmp)

	if err := checkIntegrity(tmp); err != nil {
		return err
	}
	if err := os.Rename(tmp, dstPath); err != nil {
		return fmt.Errorf("replace database: %w", err)
	}
	os.Remove(dstPath + "-wal")
	os.Remove(dstPath + "-shm")

	m.logger.Info("backup restored", "id", id, "path", dstPath)
	return nil
}

func checkIntegrity(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open restored db: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow(`PRAGMA integrity_check`).Scan(&result); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}

// Cleanup removes backups older than the retention period, both the records
// and the stored objects.
func (m *Manager) Cleanup(ctx context.Context) error {
	m.mu.RLock()
	client, bucket := m.client, m.cfg.Bucket
	m.mu.RUnlock()
	if client == nil {
		return nil
	}

	before := m.now().AddDate(0, 0, -m.cfg.RetentionDays)
	keys, err := m.backups.DeleteOlderThan(before)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if _, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		}); err != nil {
			m.logger.Warn("delete old backup object", "key", key, "error", err)
		}
	}
	if len(keys) > 0 {
		m.logger.Info("old backups removed", "count", len(keys))
	}
	return nil
}

func (m *Manager) List(limit int) ([]model.Backup, error) {
	return m.backups.List(limit)
}
