package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fixflow/backend/internal/infrastructure/config"
	"github.com/fixflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// activeOrderIndex allows at most one non-cancelled work order per request.
// Partial indexes are not expressible as struct tags, so it is created explicitly.
const activeOrderIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_work_orders_active_request ON work_orders (request_id) WHERE status <> 'CANCELLED'`

// invoiceNumberIndex keeps numbers unique within an agency. Sequences run per
// agency, so two agencies legitimately share a number. The agency column lives
// on the embedded aggregate model, hence the explicit statement.
const invoiceNumberIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_invoices_agency_number ON invoices (agency_id, number)`

// Database is an open GORM handle and the pool underneath it
type Database struct {
	DB   *gorm.DB
	pool *sql.DB
}

func wrap(db *gorm.DB) (*Database, error) {
	pool, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return &Database{DB: db, pool: pool}, nil
}

// Options tunes how a connection is opened
type Options struct {
	// Logger receives SQL logs; nil keeps GORM silent
	Logger gormlogger.Interface
}

func gormConfig(opts Options) *gorm.Config {
	l := opts.Logger
	if l == nil {
		l = gormlogger.Default.LogMode(gormlogger.Silent)
	}
	return &gorm.Config{
		Logger:                 l,
		SkipDefaultTransaction: true,
		// duplicate keys surface as gorm.ErrDuplicatedKey and then as conflicts
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// NewDatabase opens a PostgreSQL pool sized by cfg and checks it answers
func NewDatabase(cfg *config.DatabaseConfig, opts Options) (*Database, error) {
	gdb, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig(opts))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db, err := wrap(gdb)
	if err != nil {
		return nil, err
	}
	db.pool.SetMaxOpenConns(cfg.MaxOpenConns)
	db.pool.SetMaxIdleConns(cfg.MaxIdleConns)
	db.pool.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	db.pool.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := db.pool.Ping(); err != nil {
		_ = db.pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// NewSQLiteDatabase opens a SQLite database, typically "file:<name>?mode=memory&cache=shared".
// SQLite allows a single writer, so the pool is capped at one connection and
// transactions serialize instead of failing with SQLITE_BUSY.
func NewSQLiteDatabase(dsn string, opts Options) (*Database, error) {
	gdb, err := gorm.Open(sqlite.Open(dsn), gormConfig(opts))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db, err := wrap(gdb)
	if err != nil {
		return nil, err
	}
	db.pool.SetMaxOpenConns(1)
	return db, nil
}

// AutoMigrate creates or updates every table and the indexes struct tags cannot express.
// Production schemas are managed by the SQL migrations; this serves tests and local tooling.
func AutoMigrate(ctx context.Context, db *gorm.DB) error {
	db = db.WithContext(ctx)
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	if err := db.Exec(activeOrderIndex).Error; err != nil {
		return fmt.Errorf("failed to create active order index: %w", err)
	}
	if err := db.Exec(invoiceNumberIndex).Error; err != nil {
		return fmt.Errorf("failed to create invoice number index: %w", err)
	}
	return nil
}

func (d *Database) Close() error { return d.pool.Close() }

// Ping backs the readiness probe
func (d *Database) Ping(ctx context.Context) error { return d.pool.PingContext(ctx) }
