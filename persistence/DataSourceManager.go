package persistence

import (
	"context"
	"database/sql"

	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
	otgorm "github.com/smacker/opentracing-gorm"
	_ "modernc.org/sqlite"
)

type DataSourceManager struct {
	gormDB *gorm.DB

	DatabaseConfig *DatabaseConfig
}

func (m *DataSourceManager) Start() error {
	db, err := connect(m.DatabaseConfig)
	if err != nil {
		return err
	}
	db.SetLogger(&gormLogger{})
	db.LogMode(logrus.IsLevelEnabled(logrus.DebugLevel))
	otgorm.AddGormCallbacks(db)
	m.gormDB = db
	return nil
}

func (m *DataSourceManager) Stop() {
	if m.gormDB != nil {
		if err := m.gormDB.Close(); err != nil {
			logrus.Warnf("failed to close DB: %v", err)
		}
		m.gormDB = nil
	}
}

// GormDB returns a session bound to the transaction carried by ctx, if any,
// with the span of ctx attached for tracing.
func (m *DataSourceManager) GormDB(ctx context.Context) *gorm.DB {
	if tx := TxFrom(ctx); tx != nil {
		return otgorm.SetSpanToGorm(ctx, tx.New())
	}
	if m.gormDB != nil {
		return otgorm.SetSpanToGorm(ctx, m.gormDB.New())
	}
	return nil
}

// Transaction runs fn in the transaction carried by ctx, or begins a new one.
// fn receives a context carrying the transaction so that nested calls join it.
func (m *DataSourceManager) Transaction(ctx context.Context, fn func(ctx context.Context, tx *gorm.DB) error) error {
	if tx := TxFrom(ctx); tx != nil {
		return fn(ctx, otgorm.SetSpanToGorm(ctx, tx.New()))
	}
	return m.GormDB(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(WithTx(ctx, tx), tx)
	})
}

type txKey struct{}

func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func TxFrom(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return nil
	}
	tx, _ := ctx.Value(txKey{}).(*gorm.DB)
	return tx
}

func connect(config *DatabaseConfig) (*gorm.DB, error) {
	if config == nil {
		return nil, ErrDatabaseConfigMissing
	}

	var db *gorm.DB
	var err error
	if config.DriverType == DriverSqlite {
		sqlDB, err := sql.Open(DriverSqlite, config.DriverArgs)
		if err != nil {
			return nil, err
		}
		db, err = gorm.Open("sqlite3", sqlDB)
		if err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	} else {
		db, err = gorm.Open(config.DriverType, config.DriverArgs)
		if err != nil {
			return nil, err
		}
	}

	if err := db.DB().Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

type gormLogger struct{}

func (l *gormLogger) Print(values ...interface{}) {
	logrus.WithField("component", "gorm").Debug(gorm.LogFormatter(values...)...)
}
