package command

import (
	"errors"
	"time"

	"github.com/lemonwave/ir-bridge/internal/metrics"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when a tag has no stored command.
var ErrNotFound = errors.New("command: not found")

// entity is the gorm-mapped row for a stored command. Data is the packed
// waveform buffer; Samples is tracked alongside so replay does not have to
// assume a byte-aligned sample count.
type entity struct {
	Tag       string `gorm:"primaryKey;size:32"`
	Data      []byte
	Samples   int
	Protocol  string `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (entity) TableName() string { return "commands" }

// Store is the host-side command database, richer than the bridge's own
// fixed/variable on-device record slots: it is keyed by tag, unbounded in
// size, and indexed by decoded protocol.
type Store struct {
	db *gorm.DB
}

// Open creates or migrates a sqlite-backed Store at path, through gorm's
// gorm.io/driver/sqlite driver.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&entity{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Save upserts a command by tag, recording its decoded protocol and
// sample count alongside the packed waveform.
func (s *Store) Save(tag, protocol string, data []byte, samples int) error {
	e := entity{Tag: tag, Data: data, Samples: samples, Protocol: protocol}
	err := s.db.Save(&e).Error
	if err != nil {
		metrics.IncError(metrics.ErrStoreWrite)
	}
	return err
}

// Load fetches one command by tag.
func (s *Store) Load(tag string) (Record, int, string, error) {
	var e entity
	err := s.db.First(&e, "tag = ?", tag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Record{}, 0, "", ErrNotFound
	}
	if err != nil {
		metrics.IncError(metrics.ErrStoreRead)
		return Record{}, 0, "", err
	}
	return Record{Tag: e.Tag, Data: e.Data}, e.Samples, e.Protocol, nil
}

// List returns every stored tag, ordered by protocol then tag.
func (s *Store) List() ([]string, error) {
	var tags []string
	err := s.db.Model(&entity{}).Order("protocol, tag").Pluck("tag", &tags).Error
	if err != nil {
		metrics.IncError(metrics.ErrStoreRead)
	}
	return tags, err
}

// Delete removes a command by tag. Deleting a tag that doesn't exist is not
// an error.
func (s *Store) Delete(tag string) error {
	return s.db.Delete(&entity{}, "tag = ?", tag).Error
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
