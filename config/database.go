package config

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
	"healthcare-chat/config/common"
	"healthcare-chat/config/logger"
	"healthcare-chat/entity"
)

type DBConfig struct {
	*gorm.DB
	*logger.AppLogger
}

func NewDB(config *common.Config, log *logger.AppLogger) *DBConfig {
	db, err := OpenDatabase(dialector(config))
	if err != nil {
		log.Http.Error.Error().Err(err).Msg("failed to connect to database")
		panic("failed to connect database")
	}
	log.Http.Info.Info().Str("driver", config.GetDatabaseDriver()).Msg("Connection Opened to Database")
	return &DBConfig{DB: db, AppLogger: log}
}

func (db *DBConfig) GetDB() *gorm.DB {
	return db.DB
}

func dialector(cfg *common.Config) gorm.Dialector {
	if cfg.GetDatabaseDriver() == "sqlite" {
		return sqlite.Open(cfg.GetSqliteDSN())
	}
	dbHost, dbUser, dbPassword, dbName, dbPort := cfg.GetDatabaseConfig()
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		dbHost, dbUser, dbPassword, dbName, dbPort,
	)
	return postgres.Open(dsn)
}

// OpenDatabase opens the connection, runs migrations and sizes the pool.
func OpenDatabase(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   "t_",
			SingularTable: true,
		},
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	conn, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql connection: %w", err)
	}

	if err := db.AutoMigrate(
		&entity.User{},
		&entity.FriendEdge{},
		&entity.ChatRoom{},
		&entity.ChatParticipant{},
		&entity.Message{},
	); err != nil {
		return nil, fmt.Errorf("run migration: %w", err)
	}

	conn.SetMaxIdleConns(10)
	conn.SetMaxOpenConns(100)
	if db.Dialector.Name() == "sqlite" {
		// sqlite allows a single writer; an in-memory database lives in one connection
		conn.SetMaxOpenConns(1)
	}
	conn.SetConnMaxLifetime(time.Second * time.Duration(300))
	return db, nil
}
