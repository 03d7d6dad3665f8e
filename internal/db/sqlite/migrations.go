package sqlite

import (
	"database/sql"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// Schema structs used only by AutoMigrate. Runtime queries go through the raw
// stores in this package, which scan into pkg/models types.

type sessionSchema struct {
	ID                 string `gorm:"primaryKey"`
	Goal               string `gorm:"not null"`
	Title              sql.NullString
	Status             string `gorm:"type:text;check:status IN ('active', 'completed');default:'active';index"`
	TimeStarted        string `gorm:"not null"`
	TimeStartedEpoch   int64  `gorm:"index:idx_sessions_started,sort:desc;not null"`
	TimeEnded          sql.NullString
	TimeEndedEpoch     sql.NullInt64
	ProductiveTime     int64   `gorm:"default:0"`
	NotProductiveTime  int64   `gorm:"default:0"`
	FocusPercentage    float64 `gorm:"type:real;default:0"`
	NudgesReceived     int64   `gorm:"default:0"`
	AIAnalysis         sql.NullString `gorm:"column:ai_analysis"`
	AIStructuredOutput sql.NullString `gorm:"column:ai_structured_output;type:text"`
}

func (sessionSchema) TableName() string { return "sessions" }

type analysisSchema struct {
	ID             int64          `gorm:"primaryKey;autoIncrement"`
	SessionID      string         `gorm:"index:idx_analyses_session_time,priority:1;not null"`
	Timestamp      string         `gorm:"not null"`
	TimestampEpoch int64          `gorm:"index:idx_analyses_session_time,priority:2;not null"`
	Focused        bool           `gorm:"not null"`
	Explanation    string         `gorm:"type:text;not null"`
	Description    sql.NullString `gorm:"type:text"`
	Session        sessionSchema  `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

func (analysisSchema) TableName() string { return "analyses" }

type intervalSchema struct {
	ID               int64  `gorm:"primaryKey;autoIncrement"`
	SessionID        string `gorm:"index:idx_intervals_session,priority:1;not null"`
	TimeStarted      string `gorm:"not null"`
	TimeStartedEpoch int64  `gorm:"index:idx_intervals_session,priority:2;not null"`
	TimeEnded        sql.NullString
	TimeEndedEpoch   sql.NullInt64
	Focused          bool          `gorm:"not null"`
	Session          sessionSchema `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

func (intervalSchema) TableName() string { return "intervals" }

type nudgeSchema struct {
	ID             int64         `gorm:"primaryKey;autoIncrement"`
	SessionID      string        `gorm:"index;not null"`
	Timestamp      string        `gorm:"not null"`
	TimestampEpoch int64         `gorm:"not null"`
	Reason         string        `gorm:"type:text"`
	Session        sessionSchema `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

func (nudgeSchema) TableName() string { return "nudges" }

// runMigrations runs all database migrations using gormigrate.
func runMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		// Migration 001: Core tables
		{
			ID: "001_core_tables",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&sessionSchema{}); err != nil {
					return err
				}
				if err := tx.AutoMigrate(&analysisSchema{}); err != nil {
					return err
				}
				if err := tx.AutoMigrate(&intervalSchema{}); err != nil {
					return err
				}
				return tx.AutoMigrate(&nudgeSchema{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("nudges", "intervals", "analyses", "sessions")
			},
		},

		// Migration 002: Single-active lease. A partial unique index makes
		// "at most one active session" a database invariant, not just an
		// application check.
		{
			ID: "002_single_active_index",
			Migrate: func(tx *gorm.DB) error {
				return tx.Exec(
					`CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_single_active
					 ON sessions(status) WHERE status = 'active'`,
				).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Exec("DROP INDEX IF EXISTS idx_sessions_single_active").Error
			},
		},

		// Migration 003: Open-interval lookup. The monitoring loop resolves
		// the open interval on every tick.
		{
			ID: "003_open_interval_index",
			Migrate: func(tx *gorm.DB) error {
				return tx.Exec(
					`CREATE INDEX IF NOT EXISTS idx_intervals_open
					 ON intervals(session_id) WHERE time_ended_epoch IS NULL`,
				).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Exec("DROP INDEX IF EXISTS idx_intervals_open").Error
			},
		},
	})

	return m.Migrate()
}
