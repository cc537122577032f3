package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/degreefyd/assistant/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sqlx.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent across queries.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sqlx.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS colleges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		location TEXT,
		college_type TEXT,
		established_year INTEGER,
		nirf_rank INTEGER,
		rating REAL,
		total_students INTEGER,
		courses_offered INTEGER,
		fee_range TEXT,
		url TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_colleges_nirf ON colleges(nirf_rank);

	CREATE TABLE IF NOT EXISTS exams (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		full_name TEXT,
		exam_date TEXT,
		application_start TEXT,
		application_end TEXT,
		result_date TEXT,
		conducting_body TEXT,
		exam_mode TEXT,
		duration TEXT,
		url TEXT,
		raw_content TEXT
	);

	CREATE TABLE IF NOT EXISTS comparisons (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		college_1 TEXT NOT NULL,
		college_2 TEXT NOT NULL,
		college_1_fees TEXT,
		college_2_fees TEXT,
		college_1_nirf INTEGER,
		college_2_nirf INTEGER,
		college_1_courses INTEGER,
		college_2_courses INTEGER,
		college_1_year INTEGER,
		college_2_year INTEGER,
		college_1_students INTEGER,
		college_2_students INTEGER,
		college_1_type TEXT,
		college_2_type TEXT,
		college_1_rating REAL,
		college_2_rating REAL,
		college_1_location TEXT,
		college_2_location TEXT,
		url TEXT,
		UNIQUE(college_1, college_2)
	);
	`
	_, err := db.Exec(schema)
	return err
}

// likePattern turns s into a case-insensitive "contains" LIKE pattern,
// escaping LIKE wildcards so they match literally.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(strings.TrimSpace(s))) + "%"
}

// CollegeByName returns the first college whose name contains name.
func (s *SQLiteStore) CollegeByName(ctx context.Context, name string) (*models.College, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	var c models.College
	err := s.db.GetContext(ctx, &c,
		`SELECT * FROM colleges WHERE LOWER(name) LIKE ? ESCAPE '\' LIMIT 1`,
		likePattern(name),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("college lookup %q: %w", name, err)
	}
	return &c, nil
}

// ExamByName returns the first exam whose name or full name contains name.
func (s *SQLiteStore) ExamByName(ctx context.Context, name string) (*models.Exam, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	var e models.Exam
	p := likePattern(name)
	err := s.db.GetContext(ctx, &e,
		`SELECT * FROM exams
		 WHERE LOWER(name) LIKE ? ESCAPE '\' OR LOWER(COALESCE(full_name, '')) LIKE ? ESCAPE '\'
		 LIMIT 1`,
		p, p,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("exam lookup %q: %w", name, err)
	}
	return &e, nil
}

// Comparison returns the comparison row for a and b in either stored order.
func (s *SQLiteStore) Comparison(ctx context.Context, a, b string) (*models.Comparison, error) {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return nil, nil
	}
	for _, pair := range [2][2]string{{a, b}, {b, a}} {
		var c models.Comparison
		err := s.db.GetContext(ctx, &c,
			`SELECT * FROM comparisons
			 WHERE LOWER(college_1) LIKE ? ESCAPE '\' AND LOWER(college_2) LIKE ? ESCAPE '\'
			 LIMIT 1`,
			likePattern(pair[0]), likePattern(pair[1]),
		)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("comparison lookup %q/%q: %w", pair[0], pair[1], err)
		}
		return &c, nil
	}
	return nil, nil
}

// TopColleges returns ranked colleges best first, optionally filtered by location.
func (s *SQLiteStore) TopColleges(ctx context.Context, limit int, location string) ([]models.College, error) {
	var (
		rows []models.College
		err  error
	)
	if strings.TrimSpace(location) != "" {
		err = s.db.SelectContext(ctx, &rows,
			`SELECT * FROM colleges
			 WHERE nirf_rank IS NOT NULL AND LOWER(COALESCE(location, '')) LIKE ? ESCAPE '\'
			 ORDER BY nirf_rank ASC LIMIT ?`,
			likePattern(location), limit,
		)
	} else {
		err = s.db.SelectContext(ctx, &rows,
			`SELECT * FROM colleges WHERE nirf_rank IS NOT NULL ORDER BY nirf_rank ASC LIMIT ?`,
			limit,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("top colleges: %w", err)
	}
	return rows, nil
}

// CollegesByRankUpTo returns colleges with nirf_rank <= maxRank, best first.
func (s *SQLiteStore) CollegesByRankUpTo(ctx context.Context, maxRank, limit int) ([]models.College, error) {
	var rows []models.College
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM colleges
		 WHERE nirf_rank IS NOT NULL AND nirf_rank <= ?
		 ORDER BY nirf_rank ASC LIMIT ?`,
		maxRank, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("colleges by rank: %w", err)
	}
	return rows, nil
}

// InsertCollege inserts a college, ignoring duplicates by name.
func (s *SQLiteStore) InsertCollege(ctx context.Context, c *models.College) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT OR IGNORE INTO colleges
		 (name, location, college_type, established_year, nirf_rank,
		  rating, total_students, courses_offered, fee_range, url)
		 VALUES (:name, :location, :college_type, :established_year, :nirf_rank,
		  :rating, :total_students, :courses_offered, :fee_range, :url)`,
		c,
	)
	return err
}

// InsertExam inserts an exam row.
func (s *SQLiteStore) InsertExam(ctx context.Context, e *models.Exam) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO exams
		 (name, full_name, exam_date, application_start, application_end, result_date,
		  conducting_body, exam_mode, duration, url, raw_content)
		 VALUES (:name, :full_name, :exam_date, :application_start, :application_end, :result_date,
		  :conducting_body, :exam_mode, :duration, :url, :raw_content)`,
		e,
	)
	return err
}

// InsertComparison inserts a comparison row, ignoring duplicate pairs.
func (s *SQLiteStore) InsertComparison(ctx context.Context, c *models.Comparison) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT OR IGNORE INTO comparisons
		 (college_1, college_2,
		  college_1_fees, college_2_fees, college_1_nirf, college_2_nirf,
		  college_1_courses, college_2_courses, college_1_year, college_2_year,
		  college_1_students, college_2_students, college_1_type, college_2_type,
		  college_1_rating, college_2_rating, college_1_location, college_2_location, url)
		 VALUES (:college_1, :college_2,
		  :college_1_fees, :college_2_fees, :college_1_nirf, :college_2_nirf,
		  :college_1_courses, :college_2_courses, :college_1_year, :college_2_year,
		  :college_1_students, :college_2_students, :college_1_type, :college_2_type,
		  :college_1_rating, :college_2_rating, :college_1_location, :college_2_location, :url)`,
		c,
	)
	return err
}

// Counts returns the number of rows in each table.
func (s *SQLiteStore) Counts(ctx context.Context) (*Counts, error) {
	var c Counts
	for table, dst := range map[string]*int64{
		"colleges":    &c.Colleges,
		"exams":       &c.Exams,
		"comparisons": &c.Comparisons,
	} {
		if err := s.db.GetContext(ctx, dst, "SELECT COUNT(*) FROM "+table); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
	}
	return &c, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
