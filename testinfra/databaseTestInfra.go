package testinfra

import (
	"context"
	"os"
	"path/filepath"
	"statusflow/persistence"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type TestDatabase struct {
	TestDatabaseName string
	DS               *persistence.DataSourceManager

	sqliteDir string
}

// StartTestDatabase creates a throwaway database: a MySQL database when TEST_MYSQL_SERVICE
// is set (e.g. root:root@(127.0.0.1:3306)), otherwise a sqlite file in a temporary directory.
func StartTestDatabase(baseName string) *TestDatabase {
	databaseName := baseName + "_test_" + strings.ReplaceAll(uuid.New().String(), "-", "")

	mysqlSvc := os.Getenv("TEST_MYSQL_SERVICE")
	if mysqlSvc != "" {
		return startMysqlTestDatabase(mysqlSvc, databaseName)
	}

	dir, err := os.MkdirTemp("", databaseName)
	if err != nil {
		logrus.Fatalf("failed to create test database directory %v", err)
	}
	dbConfig := &persistence.DatabaseConfig{
		DriverType: persistence.DriverSqlite,
		DriverArgs: "file:" + filepath.Join(dir, databaseName+".db") +
			"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
	}
	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := ds.Start(); err != nil {
		_ = os.RemoveAll(dir)
		logrus.Fatalf("database connection failed %v", err)
	}
	return &TestDatabase{TestDatabaseName: databaseName, DS: ds, sqliteDir: dir}
}

func startMysqlTestDatabase(mysqlSvc, databaseName string) *TestDatabase {
	dbConfig := &persistence.DatabaseConfig{
		DriverType: persistence.DriverMysql,
		DriverArgs: mysqlSvc + "/" + databaseName + "?charset=utf8mb4&parseTime=True&loc=Local&timeout=5s",
	}

	// create database (no conflict)
	if err := persistence.PrepareMysqlDatabase(dbConfig.DriverArgs); err != nil {
		logrus.Fatalf("failed to prepare database %v", err)
	}

	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := ds.Start(); err != nil {
		defer ds.Stop()
		logrus.Fatalf("database connection failed %v", err)
	}
	return &TestDatabase{TestDatabaseName: databaseName, DS: ds}
}

func StopTestDatabase(testDatabase *TestDatabase) {
	if testDatabase == nil || testDatabase.DS == nil {
		return
	}
	if testDatabase.sqliteDir == "" {
		if db := testDatabase.DS.GormDB(context.Background()); db != nil {
			if err := db.Exec("DROP DATABASE " + testDatabase.TestDatabaseName).Error; err != nil {
				logrus.Warn("failed to drop test database: " + testDatabase.TestDatabaseName)
			}
		}
	}

	testDatabase.DS.Stop()
	if testDatabase.sqliteDir != "" {
		_ = os.RemoveAll(testDatabase.sqliteDir)
	}
}
