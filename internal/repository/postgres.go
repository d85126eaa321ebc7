package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

type PostgresRepository struct {
	db     DBTX
	logger zerolog.Logger
}

func NewPostgresRepository(db DBTX, logger zerolog.Logger) *PostgresRepository {
	return &PostgresRepository{
		db:     db,
		logger: logger,
	}
}

type postgresStore struct {
	sqlDB  *sql.DB
	q      DBTX
	inTx   bool
	logger zerolog.Logger
}

// NewPostgresStore returns a Store backed by db. Closing the store closes db.
func NewPostgresStore(db *sql.DB, logger zerolog.Logger) Store {
	return &postgresStore{
		sqlDB:  db,
		q:      db,
		logger: logger.With().Str("store", "postgres").Logger(),
	}
}

func (s *postgresStore) base() *PostgresRepository {
	return NewPostgresRepository(s.q, s.logger)
}

func (s *postgresStore) Users() UserRepository       { return &userRepository{s.base()} }
func (s *postgresStore) Topics() TopicRepository     { return &topicRepository{s.base()} }
func (s *postgresStore) Groups() GroupRepository     { return &groupRepository{s.base()} }
func (s *postgresStore) Projects() ProjectRepository { return &projectRepository{s.base()} }
func (s *postgresStore) Assessments() AssessmentRepository {
	return &assessmentRepository{s.base()}
}
func (s *postgresStore) Milestones() MilestoneRepository { return &milestoneRepository{s.base()} }
func (s *postgresStore) Notifications() NotificationRepository {
	return &notificationRepository{s.base()}
}
func (s *postgresStore) Snapshots() SnapshotRepository { return &snapshotRepository{s.base()} }

func (s *postgresStore) WithTx(ctx context.Context, fn func(tx Store) error) (err error) {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("Failed to rollback transaction")
			}
			return
		}
		if err = tx.Commit(); err != nil {
			err = fmt.Errorf("commit transaction: %w", mapError(err))
		}
	}()

	return fn(&postgresStore{sqlDB: s.sqlDB, q: tx, inTx: true, logger: s.logger})
}

func (s *postgresStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return s.sqlDB.PingContext(ctx)
}

func (s *postgresStore) Close() error {
	return s.sqlDB.Close()
}
