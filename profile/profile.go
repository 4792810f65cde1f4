// Package profile persists creator display profiles keyed by account
// address. It is a collaborator of the payment core, not part of it:
// the core only reads the current account to key lookups here.
package profile

import (
	"errors"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Profile is the display identity a creator attaches to an account.
type Profile struct {
	// Base58 account address the profile belongs to.
	Address string `gorm:"primaryKey" json:"address"`

	Name      string    `json:"name"`
	Bio       string    `json:"bio"`
	AvatarURI string    `json:"avatarUri"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store is a sqlite-backed profile store.
type Store struct {
	db *gorm.DB
}

// NewStore opens (or creates) the profile database at path. Use
// ":memory:" for an ephemeral store.
func NewStore(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Profile{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Get returns the profile for an address, or nil when none is stored.
func (s *Store) Get(address string) (*Profile, error) {
	var p Profile
	err := s.db.First(&p, "address = ?", address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Put creates or replaces the profile for its address.
func (s *Store) Put(p *Profile) error {
	p.UpdatedAt = time.Now()
	return s.db.Save(p).Error
}

// Delete removes the profile for an address. Deleting a missing
// profile is not an error.
func (s *Store) Delete(address string) error {
	return s.db.Delete(&Profile{}, "address = ?", address).Error
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
