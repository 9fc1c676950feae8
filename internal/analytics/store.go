package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/JustJay7/docket-dashboard/internal/database"
	"github.com/JustJay7/docket-dashboard/internal/metrics"
	"github.com/JustJay7/docket-dashboard/pkg/logger"
	"gorm.io/gorm"
)

// Store runs read-only aggregate queries against the cases table. The
// caller owns the connection; a Store is safe for concurrent use.
type Store struct {
	db      *gorm.DB
	dialect dialect
	logger  *logger.Logger
}

// NewStore wraps an open connection. The SQL dialect is taken from the
// gorm dialector.
func NewStore(db *gorm.DB, log *logger.Logger) (*Store, error) {
	d, err := dialectFor(db.Dialector.Name())
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Store{db: db, dialect: d, logger: log}, nil
}

// Dialect names the SQL dialect in use.
func (s *Store) Dialect() string {
	return s.dialect.name()
}

func (s *Store) cases(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&database.Case{})
}

// run executes one query, recording its latency and wrapping failures as
// StoreError.
func (s *Store) run(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.ObserveQuery(op, start, err)
	if err != nil {
		s.logger.Warn("Query failed", "operation", op, "error", err)
		return storeError(op, err)
	}
	s.logger.Debug("Query completed", "operation", op, "duration", time.Since(start).String())
	return nil
}

// Extent returns the earliest and latest filing date in the store. Both
// bounds are zero when no case has a filing date.
func (s *Store) Extent(ctx context.Context) (DateRange, error) {
	var row struct {
		MinDate *string
		MaxDate *string
	}
	err := s.run("extent", func() error {
		return s.cases(ctx).
			Select(fmt.Sprintf("%s AS min_date, %s AS max_date",
				s.dialect.dateText("MIN(filing_date)"),
				s.dialect.dateText("MAX(filing_date)"))).
			Where("filing_date IS NOT NULL").
			Scan(&row).Error
	})
	if err != nil {
		return DateRange{}, err
	}

	var r DateRange
	if row.MinDate != nil {
		if r.Start, err = parseBucket(*row.MinDate); err != nil {
			return DateRange{}, storeError("extent", err)
		}
	}
	if row.MaxDate != nil {
		if r.End, err = parseBucket(*row.MaxDate); err != nil {
			return DateRange{}, storeError("extent", err)
		}
	}
	return r, nil
}

// Courts lists every distinct court slug, sorted.
func (s *Store) Courts(ctx context.Context) ([]string, error) {
	courts := []string{}
	err := s.run("courts", func() error {
		return s.cases(ctx).
			Where("court_slug IS NOT NULL").
			Distinct().
			Order("court_slug").
			Pluck("court_slug", &courts).Error
	})
	return courts, err
}

// closeRange fills open bounds of r from the store extent.
// CloseRange fills the open bounds of r from the store extent.
func (s *Store) CloseRange(ctx context.Context, r DateRange) (DateRange, error) {
	return s.closeRange(ctx, r)
}

func (s *Store) closeRange(ctx context.Context, r DateRange) (DateRange, error) {
	if !r.Open() {
		return r, nil
	}
	ext, err := s.Extent(ctx)
	if err != nil {
		return DateRange{}, err
	}
	if r.Start.IsZero() {
		r.Start = ext.Start
	}
	if r.End.IsZero() {
		r.End = ext.End
	}
	return r, nil
}
