package ingest

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JustJay7/docket-dashboard/internal/database"
	"github.com/JustJay7/docket-dashboard/internal/metrics"
	"github.com/JustJay7/docket-dashboard/pkg/logger"
)

const (
	// DefaultBatchSize is the number of rows per INSERT.
	DefaultBatchSize = 1000

	maxLineSize = 16 << 20
)

// Result counts what one load did.
type Result struct {
	Read      int `json:"read"`
	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
	Malformed int `json:"malformed"`
}

// Add accumulates other into r.
func (r *Result) Add(other Result) {
	r.Read += other.Read
	r.Inserted += other.Inserted
	r.Updated += other.Updated
	r.Skipped += other.Skipped
	r.Malformed += other.Malformed
}

// Loader appends docket exports to the cases table. It is the only writer
// of the store; existing case ids are never overwritten.
type Loader struct {
	db        *gorm.DB
	logger    *logger.Logger
	batchSize int
}

// NewLoader creates a loader over an open connection.
func NewLoader(db *gorm.DB, log *logger.Logger) *Loader {
	if log == nil {
		log = logger.NewNop()
	}
	return &Loader{db: db, logger: log, batchSize: DefaultBatchSize}
}

// WithBatchSize overrides the insert batch size.
func (l *Loader) WithBatchSize(n int) *Loader {
	if n > 0 {
		l.batchSize = n
	}
	return l
}

// LoadDockets streams JSONL dockets from r. Blank lines are ignored,
// undecodable lines are counted as malformed, and ids already present in
// the file or the store are skipped.
func (l *Loader) LoadDockets(ctx context.Context, r io.Reader) (Result, error) {
	var res Result
	seen := make(map[int64]struct{})
	batch := make([]database.Case, 0, l.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		tx := l.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&batch)
		if tx.Error != nil {
			return fmt.Errorf("failed to insert batch: %w", tx.Error)
		}
		inserted := int(tx.RowsAffected)
		res.Inserted += inserted
		res.Skipped += len(batch) - inserted
		batch = batch[:0]
		return nil
	}

	err := scanLines(ctx, r, func(n int, line []byte) error {
		res.Read++
		c, err := ParseDocket(line)
		if err != nil {
			res.Malformed++
			l.logger.Debug("Skipping malformed docket", "line", n, "error", err)
			return nil
		}
		if _, dup := seen[c.CaseID]; dup {
			res.Skipped++
			return nil
		}
		seen[c.CaseID] = struct{}{}

		batch = append(batch, *c)
		if len(batch) >= l.batchSize {
			return flush()
		}
		return nil
	})
	if err == nil {
		err = flush()
	}

	record(res)
	return res, err
}

// LoadOutcomes sets the outcome flag for cases already in the store.
// Outcomes for unknown case ids are skipped.
func (l *Loader) LoadOutcomes(ctx context.Context, r io.Reader) (Result, error) {
	var res Result
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return scanLines(ctx, r, func(n int, line []byte) error {
			res.Read++
			o, err := ParseOutcome(line)
			if err != nil {
				res.Malformed++
				l.logger.Debug("Skipping malformed outcome", "line", n, "error", err)
				return nil
			}

			upd := tx.Model(&database.Case{}).
				Where("case_id = ?", o.CaseID).
				Update("outcome_win", o.Win)
			if upd.Error != nil {
				return fmt.Errorf("failed to update case %d: %w", o.CaseID, upd.Error)
			}
			if upd.RowsAffected == 0 {
				res.Skipped++
				return nil
			}
			res.Updated++
			return nil
		})
	})

	record(res)
	return res, err
}

// LoadDir loads every dockets_*.jsonl file in dir, then every
// outcomes_*.jsonl file, each group in lexical order.
func (l *Loader) LoadDir(ctx context.Context, dir string) (Result, error) {
	var total Result

	groups := []struct {
		pattern string
		load    func(context.Context, io.Reader) (Result, error)
	}{
		{"dockets_*.jsonl", l.LoadDockets},
		{"outcomes_*.jsonl", l.LoadOutcomes},
	}

	for _, g := range groups {
		files, err := filepath.Glob(filepath.Join(dir, g.pattern))
		if err != nil {
			return total, fmt.Errorf("bad pattern %q: %w", g.pattern, err)
		}
		sort.Strings(files)

		for _, path := range files {
			res, err := l.loadFile(ctx, path, g.load)
			total.Add(res)
			if err != nil {
				return total, err
			}
		}
	}

	l.logger.Info("Ingest complete",
		"dir", dir,
		"read", total.Read,
		"inserted", total.Inserted,
		"updated", total.Updated,
		"skipped", total.Skipped,
		"malformed", total.Malformed,
	)
	return total, nil
}

func (l *Loader) loadFile(ctx context.Context, path string, load func(context.Context, io.Reader) (Result, error)) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	res, err := load(ctx, f)
	if err != nil {
		return res, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	l.logger.Info("Loaded file",
		"file", filepath.Base(path),
		"read", res.Read,
		"inserted", res.Inserted,
		"updated", res.Updated,
		"skipped", res.Skipped,
	)
	return res, nil
}

// scanLines calls fn for every non-blank line of r with its 1-based line
// number.
func scanLines(ctx context.Context, r io.Reader, fn func(n int, line []byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	n := 0
	for sc.Scan() {
		n++
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(n, line); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

func record(res Result) {
	metrics.CasesIngestedTotal.WithLabelValues("inserted").Add(float64(res.Inserted))
	metrics.CasesIngestedTotal.WithLabelValues("updated").Add(float64(res.Updated))
	metrics.CasesIngestedTotal.WithLabelValues("skipped").Add(float64(res.Skipped))
	metrics.CasesIngestedTotal.WithLabelValues("malformed").Add(float64(res.Malformed))
}
