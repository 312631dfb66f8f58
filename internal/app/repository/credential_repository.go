package repository

import (
	"sync"

	"github.com/ikkim/must-canteen/internal/app/model"
	"github.com/ikkim/must-canteen/pkg/logger"
	"github.com/ikkim/must-canteen/pkg/util"
	"gorm.io/gorm"
)

// CredentialRepository stores accounts as one blob under KeyCredentialRecords.
// Lookups return gorm.ErrRecordNotFound for a missing account.
type CredentialRepository interface {
	FindByEmail(email string) (*model.CredentialRecord, error)
	// FindByIdentifier returns every record whose email or email local-part equals identifier.
	FindByIdentifier(identifier string) ([]model.CredentialRecord, error)
	Create(record model.CredentialRecord) error
	Update(email string, fn func(*model.CredentialRecord) error) error
}

type credentialRepository struct {
	mu sync.Mutex
	kv KVStore
}

func NewCredentialRepository(kv KVStore) CredentialRepository {
	return &credentialRepository{kv: kv}
}

func (r *credentialRepository) load() ([]model.CredentialRecord, error) {
	var records []model.CredentialRecord
	if _, err := loadJSON(r.kv, KeyCredentialRecords, &records); err != nil {
		logger.Error("Failed to load credential records", err)
		return nil, err
	}
	return records, nil
}

func (r *credentialRepository) FindByEmail(email string) (*model.CredentialRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].Profile.Email == email {
			return &records[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *credentialRepository) FindByIdentifier(identifier string) ([]model.CredentialRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return nil, err
	}
	var matches []model.CredentialRecord
	for _, rec := range records {
		email := rec.Profile.Email
		local := util.EmailLocalPart(email)
		if email == identifier || (local != "" && local == identifier) {
			matches = append(matches, rec)
		}
	}
	return matches, nil
}

// Create appends a record. An existing record with the same email is left untouched
// and gorm.ErrDuplicatedKey is returned.
func (r *credentialRepository) Create(record model.CredentialRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return err
	}
	for _, rec := range records {
		if rec.Profile.Email == record.Profile.Email {
			logger.Warn("Credential record already exists", map[string]interface{}{
				"email": record.Profile.Email,
			})
			return gorm.ErrDuplicatedKey
		}
	}
	records = append(records, record)

	if err := saveJSON(r.kv, KeyCredentialRecords, records); err != nil {
		return err
	}
	logger.Debug("Credential record stored", map[string]interface{}{
		"user_id": record.Profile.ID,
		"count":   len(records),
	})
	return nil
}

func (r *credentialRepository) Update(email string, fn func(*model.CredentialRecord) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return err
	}
	for i := range records {
		if records[i].Profile.Email != email {
			continue
		}
		if err := fn(&records[i]); err != nil {
			return err
		}
		return saveJSON(r.kv, KeyCredentialRecords, records)
	}
	return gorm.ErrRecordNotFound
}
