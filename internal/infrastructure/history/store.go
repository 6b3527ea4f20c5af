package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"camscope/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion текущая версия схемы
const schemaVersion = 1

// DefaultLimit количество сканов, возвращаемых Recent по умолчанию
const DefaultLimit = 10

// ErrSchemaMismatch версия схемы базы не совпадает с ожидаемой
var ErrSchemaMismatch = errors.New("несовпадение версии схемы")

// CameraRecord камера, сохранённая в истории
type CameraRecord struct {
	DeviceID    string             `json:"deviceId"`
	Label       string             `json:"label"`
	Role        domain.Role        `json:"role"`
	Orientation domain.Orientation `json:"orientation"`
	External    bool               `json:"external"`
	Resolution  domain.Resolution  `json:"resolution"`
}

// ScanRecord один проход сканирования
type ScanRecord struct {
	ID        string         `json:"id"`
	ScannedAt time.Time      `json:"scannedAt"`
	Cameras   []CameraRecord `json:"cameras"`
}

// Store история сканирований в SQLite
type Store struct {
	db   *sql.DB
	path string
}

// Open открывает или создаёт базу истории
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("не указан путь к базе истории")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("создание каталога истории: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("открытие sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path возвращает путь к базе
func (s *Store) Path() string {
	return s.path
}

// Close закрывает соединение с базой
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record сохраняет каталог одного прохода сканирования
func (s *Store) Record(ctx context.Context, catalog domain.Catalog) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("начало транзакции: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	scannedAt := catalog.ScannedAt
	if scannedAt.IsZero() {
		scannedAt = time.Now()
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO scans (id, scanned_at, camera_count) VALUES (?, ?, ?)",
		catalog.ID, scannedAt.UTC().Format(time.RFC3339Nano), catalog.Len(),
	); err != nil {
		return fmt.Errorf("запись скана %s: %w", catalog.ID, err)
	}

	for i, cam := range catalog.Cameras {
		res := cam.Profile.Settings.Resolution()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO scan_cameras (
                scan_id, position, device_id, label, role, orientation, external, width, height
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			catalog.ID, i, cam.DeviceID, cam.DisplayLabel, string(cam.Role), string(cam.Orientation),
			boolToInt(cam.IsExternal), res.Width, res.Height,
		); err != nil {
			return fmt.Errorf("запись камеры %s: %w", cam.DeviceID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("фиксация скана: %w", err)
	}
	return nil
}

// Recent возвращает последние сканы, новые первыми
func (s *Store) Recent(ctx context.Context, limit int) ([]ScanRecord, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, scanned_at FROM scans ORDER BY scanned_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("чтение сканов: %w", err)
	}

	var scans []ScanRecord
	for rows.Next() {
		var rec ScanRecord
		var scannedAt string
		if err := rows.Scan(&rec.ID, &scannedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("разбор скана: %w", err)
		}
		rec.ScannedAt, err = time.Parse(time.RFC3339Nano, scannedAt)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("разбор времени скана %s: %w", rec.ID, err)
		}
		scans = append(scans, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range scans {
		cameras, err := s.cameras(ctx, scans[i].ID)
		if err != nil {
			return nil, err
		}
		scans[i].Cameras = cameras
	}
	return scans, nil
}

func (s *Store) cameras(ctx context.Context, scanID string) ([]CameraRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT device_id, label, role, orientation, external, width, height
         FROM scan_cameras WHERE scan_id = ? ORDER BY position`, scanID)
	if err != nil {
		return nil, fmt.Errorf("чтение камер скана %s: %w", scanID, err)
	}
	defer rows.Close()

	cameras := []CameraRecord{}
	for rows.Next() {
		var rec CameraRecord
		var role, orientation string
		var external int
		if err := rows.Scan(&rec.DeviceID, &rec.Label, &role, &orientation, &external,
			&rec.Resolution.Width, &rec.Resolution.Height); err != nil {
			return nil, fmt.Errorf("разбор камеры: %w", err)
		}
		rec.Role = domain.Role(role)
		rec.Orientation = domain.Orientation(orientation)
		rec.External = external != 0
		cameras = append(cameras, rec)
	}
	return cameras, rows.Err()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("проверка таблицы schema_version: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("чтение версии схемы: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: в базе версия %d, ожидается %d (удалите %s)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("начало транзакции схемы: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("создание схемы: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("запись версии схемы: %w", err)
	}
	return tx.Commit()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
