// Package creds persists the session's tokens and the logged-in user's
// profile between runs, the desktop analog of the auth cookie plus the
// browser-local profile record.
package creds

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rishta-app/rishta-client/internal/model"
)

// Record is the plaintext shape sealed into the credentials row.
type Record struct {
	AccessToken   string          `json:"accessToken,omitempty"`
	AccessExpiry  time.Time       `json:"accessExpiry,omitempty"`
	RefreshToken  string          `json:"refreshToken,omitempty"`
	RefreshExpiry time.Time       `json:"refreshExpiry,omitempty"`
	Profile       json.RawMessage `json:"profile,omitempty"`
}

// row is the single credentials table row. Sealed holds the secretbox
// ciphertext of Record, nonce-prefixed; Salt feeds key derivation.
type row struct {
	ID        uint   `gorm:"primaryKey"`
	Salt      []byte `gorm:"not null"`
	Sealed    []byte
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (row) TableName() string { return "credentials" }

const recordID = 1

// Store holds the current Record in memory and writes every change
// through to the sealed sqlite row.
type Store struct {
	db  *gorm.DB
	key [32]byte

	mu  sync.Mutex
	rec Record
}

// Open opens (or creates) the credential store at path. The sealing key
// is derived from passphrase and a per-store random salt via scrypt.
func Open(path, passphrase string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}
	if err := db.AutoMigrate(&row{}); err != nil {
		return nil, fmt.Errorf("failed to migrate credential store: %w", err)
	}

	var r row
	res := db.First(&r, recordID)
	if res.Error != nil {
		if !errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to read credential row: %w", res.Error)
		}
		r = row{ID: recordID, Salt: make([]byte, 16)}
		if _, err := rand.Read(r.Salt); err != nil {
			return nil, fmt.Errorf("failed to generate salt: %w", err)
		}
		if err := db.Create(&r).Error; err != nil {
			return nil, fmt.Errorf("failed to create credential row: %w", err)
		}
	}

	s := &Store{db: db}
	key, err := scrypt.Key([]byte(passphrase), r.Salt, 1<<15, 8, 1, 32)
	if err != nil {
		return nil, fmt.Errorf("failed to derive sealing key: %w", err)
	}
	copy(s.key[:], key)

	if len(r.Sealed) > 0 {
		rec, err := s.unseal(r.Sealed)
		if err != nil {
			// Wrong passphrase or corrupt row: start logged out.
			return s, nil
		}
		s.rec = pruneExpired(rec, time.Now())
	}
	return s, nil
}

// AccessToken returns the stored access token, or "" when absent or
// past its expiry.
func (s *Store) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec.AccessToken == "" || time.Now().After(s.rec.AccessExpiry) {
		return ""
	}
	return s.rec.AccessToken
}

// RefreshToken returns the stored refresh token, or "" when absent or
// past its expiry.
func (s *Store) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec.RefreshToken == "" || time.Now().After(s.rec.RefreshExpiry) {
		return ""
	}
	return s.rec.RefreshToken
}

// SetTokens stores both tokens, as issued at login.
func (s *Store) SetTokens(access string, accessExpiry time.Time, refresh string, refreshExpiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.AccessToken = access
	s.rec.AccessExpiry = accessExpiry
	s.rec.RefreshToken = refresh
	s.rec.RefreshExpiry = refreshExpiry
	return s.persist()
}

// SetAccessToken replaces the access token after a refresh.
func (s *Store) SetAccessToken(token string, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.AccessToken = token
	s.rec.AccessExpiry = expiry
	return s.persist()
}

// SaveProfile persists the logged-in user's profile record.
func (s *Store) SaveProfile(u model.User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.Profile = b
	return s.persist()
}

// Profile returns the persisted profile record, if any.
func (s *Store) Profile() (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rec.Profile) == 0 {
		return model.User{}, false
	}
	var u model.User
	if err := json.Unmarshal(s.rec.Profile, &u); err != nil {
		return model.User{}, false
	}
	return u, true
}

// Clear wipes tokens and profile, both in memory and at rest.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = Record{}
	return s.persist()
}

// persist seals the current record into the credentials row. Caller
// holds mu.
func (s *Store) persist() error {
	plain, err := json.Marshal(s.rec)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], plain, &nonce, &s.key)

	return s.db.Model(&row{}).Where("id = ?", recordID).Update("sealed", sealed).Error
}

func (s *Store) unseal(sealed []byte) (Record, error) {
	if len(sealed) < 24 {
		return Record{}, fmt.Errorf("sealed credentials too short")
	}
	var nonce [24]byte
	copy(nonce[:], sealed[:24])
	plain, ok := secretbox.Open(nil, sealed[24:], &nonce, &s.key)
	if !ok {
		return Record{}, fmt.Errorf("failed to unseal credentials")
	}
	var rec Record
	if err := json.Unmarshal(plain, &rec); err != nil {
		return Record{}, fmt.Errorf("failed to decode credentials: %w", err)
	}
	return rec, nil
}

// pruneExpired drops tokens whose expiry has passed. An expired refresh
// token means the whole session is stale.
func pruneExpired(rec Record, now time.Time) Record {
	if rec.AccessToken != "" && now.After(rec.AccessExpiry) {
		rec.AccessToken = ""
		rec.AccessExpiry = time.Time{}
	}
	if rec.RefreshToken != "" && now.After(rec.RefreshExpiry) {
		return Record{}
	}
	return rec
}
