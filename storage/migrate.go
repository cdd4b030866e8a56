package storage

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gofiber/fiber/v3/log"
	"github.com/hidenkeys/studios/booking"
	"github.com/hidenkeys/studios/studio"
	"github.com/hidenkeys/studios/user"
	"gorm.io/gorm"
)

// Migration is one versioned schema step.
type Migration struct {
	Version string
	Name    string
	Up      func(*gorm.DB) error
	Down    func(*gorm.DB) error
}

// MigrationRecord tracks applied migrations.
type MigrationRecord struct {
	Version   string `gorm:"primaryKey"`
	Name      string
	AppliedAt time.Time
}

type Migrator struct {
	db         *gorm.DB
	migrations []Migration
}

func NewMigrator(db *gorm.DB) *Migrator {
	return &Migrator{db: db}
}

func (m *Migrator) Register(ms ...Migration) {
	m.migrations = append(m.migrations, ms...)
	sort.SliceStable(m.migrations, func(i, j int) bool {
		return m.migrations[i].Version < m.migrations[j].Version
	})
}

func (m *Migrator) ensureVersionTable() error {
	return m.db.AutoMigrate(&MigrationRecord{})
}

// Applied returns the applied versions, oldest first.
func (m *Migrator) Applied() ([]MigrationRecord, error) {
	if err := m.ensureVersionTable(); err != nil {
		return nil, err
	}
	var records []MigrationRecord
	if err := m.db.Order("version").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Up applies every pending migration, each in its own transaction.
func (m *Migrator) Up() (int, error) {
	records, err := m.Applied()
	if err != nil {
		return 0, err
	}
	applied := make(map[string]bool, len(records))
	for _, r := range records {
		applied[r.Version] = true
	}

	n := 0
	for _, mg := range m.migrations {
		if applied[mg.Version] {
			continue
		}
		err := m.db.Transaction(func(tx *gorm.DB) error {
			if err := mg.Up(tx); err != nil {
				return err
			}
			return tx.Create(&MigrationRecord{Version: mg.Version, Name: mg.Name, AppliedAt: time.Now()}).Error
		})
		if err != nil {
			return n, fmt.Errorf("migration %s (%s): %w", mg.Version, mg.Name, err)
		}
		log.Infof("applied migration %s %s", mg.Version, mg.Name)
		n++
	}
	return n, nil
}

// Down rolls back the most recently applied migration. It returns false when
// nothing was applied.
func (m *Migrator) Down() (bool, error) {
	if err := m.ensureVersionTable(); err != nil {
		return false, err
	}
	var last MigrationRecord
	if err := m.db.Order("version DESC").First(&last).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	var target *Migration
	for i := range m.migrations {
		if m.migrations[i].Version == last.Version {
			target = &m.migrations[i]
			break
		}
	}
	if target == nil {
		return false, fmt.Errorf("migration %s is applied but not registered", last.Version)
	}

	err := m.db.Transaction(func(tx *gorm.DB) error {
		if target.Down != nil {
			if err := target.Down(tx); err != nil {
				return err
			}
		}
		return tx.Delete(&last).Error
	})
	if err != nil {
		return false, fmt.Errorf("rollback %s (%s): %w", target.Version, target.Name, err)
	}
	log.Infof("rolled back migration %s %s", target.Version, target.Name)
	return true, nil
}

// Migrations is the schema history of the service.
func Migrations() []Migration {
	return []Migration{
		{
			Version: "20250101000001",
			Name:    "create_studios",
			Up:      func(tx *gorm.DB) error { return tx.AutoMigrate(&studio.Unit{}) },
			Down:    func(tx *gorm.DB) error { return tx.Migrator().DropTable(&studio.Unit{}) },
		},
		{
			Version: "20250101000002",
			Name:    "create_reservations",
			Up:      func(tx *gorm.DB) error { return tx.AutoMigrate(&booking.Reservation{}) },
			Down:    func(tx *gorm.DB) error { return tx.Migrator().DropTable(&booking.Reservation{}) },
		},
		{
			Version: "20250101000003",
			Name:    "create_users",
			Up:      func(tx *gorm.DB) error { return tx.AutoMigrate(&user.User{}) },
			Down:    func(tx *gorm.DB) error { return tx.Migrator().DropTable(&user.User{}) },
		},
		{
			Version: "20250101000004",
			Name:    "rename_proposed_dates_status",
			Up: func(tx *gorm.DB) error {
				return tx.Model(&booking.Reservation{}).
					Where("status = ?", "proposed_dates").
					Update("status", booking.AlternativeProposed).Error
			},
		},
	}
}

// Migrate applies the service's pending migrations.
func Migrate(db *gorm.DB) error {
	m := NewMigrator(db)
	m.Register(Migrations()...)
	_, err := m.Up()
	return err
}
