package telemetry

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store owns the telemetry database connection. Connect prefers Postgres
// and falls back to local SQLite so a missing server never blocks a run.
type Store struct {
	DB         *gorm.DB
	IsLocal    bool
	SqlitePath string
	Logger     zerolog.Logger
}

// NewStore creates an unconnected store.
func NewStore(log zerolog.Logger) *Store {
	return &Store{Logger: log}
}

// Connect opens the database and migrates the schema.
func (s *Store) Connect() error {
	var err error

	s.DB, err = openPostgres()
	if err != nil {
		s.Logger.Error().Err(err).Msg("Failed to connect to Postgres, trying SQLite")
		s.IsLocal = true
		s.DB, err = openSqlite(s.SqlitePath)
		if err != nil {
			return fmt.Errorf("failed to open local SQLite DB: %w", err)
		}
	}

	sqlDB, err := s.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		s.Logger.Error().Err(err).Msg("Failed to validate connection, trying SQLite")
		s.IsLocal = true
		s.DB, err = openSqlite(s.SqlitePath)
		if err != nil {
			return fmt.Errorf("failed to open local SQLite DB: %w", err)
		}
	}

	if !s.IsLocal {
		sqlDB.SetMaxOpenConns(10)
	}

	if err := s.DB.AutoMigrate(DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	s.Logger.Info().Bool("local", s.IsLocal).Msg("Telemetry store connected")
	return nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	if s.DB == nil {
		return nil
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// StartSession creates a session row and returns its ID.
func (s *Store) StartSession(session *Session) error {
	if err := s.DB.Create(session).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// EndSession stamps the final duration on the session row.
func (s *Store) EndSession(id uint, duration float64) error {
	return s.DB.Model(&Session{}).Where("id = ?", id).
		Update("duration", duration).Error
}

func openPostgres() (*gorm.DB, error) {
	dsn := fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		viper.GetString("db.host"),
		viper.GetString("db.port"),
		viper.GetString("db.username"),
		viper.GetString("db.password"),
		viper.GetString("db.database"),
	)

	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        10000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
}

// openSqlite opens a file DB, or an in-memory DB when path is empty.
func openSqlite(path string) (*gorm.DB, error) {
	if path == "" {
		path = "file::memory:?cache=shared"
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        2000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA journal_mode = MEMORY;",
		"PRAGMA synchronous = OFF;",
		"PRAGMA temp_store = MEMORY;",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}

	return db, nil
}
