package store

import (
	"errors"
	"time"

	"linkcycle/internal/model"
	"linkcycle/pkg/clock"

	"gorm.io/gorm"
)

// Store is the durable table of link records. All mutations are single
// conditional statements (or one short transaction), so concurrent
// workers serialize per code at the database and never observe a
// half-applied update.
type Store struct {
	db    *gorm.DB
	clock clock.Clock
}

// New creates a Store. The database must be opened with
// gorm.Config{TranslateError: true} so unique-index violations surface
// as gorm.ErrDuplicatedKey.
func New(db *gorm.DB, clk clock.Clock) *Store {
	return &Store{db: db, clock: clk}
}

// Stats summarizes the table for the admin dashboard.
type Stats struct {
	TotalLinks  int64 `json:"total_links"`
	TotalClicks int64 `json:"total_clicks"`
	ActiveLinks int64 `json:"active_links"`
	Reclaimable int64 `json:"reclaimable_codes"`
}

// CreateActive allocates code for targetURL. If an inactive row holds
// the code it is revived with fresh metadata; otherwise a new row is
// inserted. Fails with ErrCodeConflict when the code is already live,
// which the unique index on code guarantees even when two workers race
// on the same candidate.
func (s *Store) CreateActive(code, targetURL string, monetize bool) (*model.LinkRecord, error) {
	now := s.clock.Now()
	var rec model.LinkRecord

	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.LinkRecord{}).
			Where("code = ? AND active = ?", code, false).
			Updates(map[string]interface{}{
				"target_url":     targetURL,
				"click_count":    0,
				"active":         true,
				"never_expires":  false,
				"monetize":       monetize,
				"created_at":     now,
				"last_access_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			return tx.Where("code = ?", code).First(&rec).Error
		}

		rec = model.LinkRecord{
			Code:         code,
			TargetURL:    targetURL,
			Active:       true,
			Monetize:     monetize,
			CreatedAt:    now,
			LastAccessAt: now,
		}
		if err := tx.Create(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrCodeConflict
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetActive returns the live record for code, or ErrNotFound. A code
// that was reclaimed looks exactly like one that never existed.
func (s *Store) GetActive(code string) (*model.LinkRecord, error) {
	var rec model.LinkRecord
	err := s.db.Where("code = ? AND active = ?", code, true).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// RecordAccess bumps the click counter and refreshes last_access_at in
// one statement. The increment happens in the database, so concurrent
// redirects never lose clicks.
func (s *Store) RecordAccess(code string) error {
	res := s.db.Model(&model.LinkRecord{}).
		Where("code = ? AND active = ?", code, true).
		Updates(map[string]interface{}{
			"click_count":    gorm.Expr("click_count + 1"),
			"last_access_at": s.clock.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetNeverExpires marks or unmarks a live code as exempt from
// reclamation.
func (s *Store) SetNeverExpires(code string, value bool) error {
	return s.updateActive(code, "never_expires", value)
}

// SetMonetize toggles interstitial routing for a live code.
func (s *Store) SetMonetize(code string, value bool) error {
	return s.updateActive(code, "monetize", value)
}

func (s *Store) updateActive(code, column string, value interface{}) error {
	res := s.db.Model(&model.LinkRecord{}).
		Where("code = ? AND active = ?", code, true).
		Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Deactivate retires a live code, returning it to the reusable pool.
func (s *Store) Deactivate(code string) error {
	return s.updateActive(code, "active", false)
}

// ListAll returns every record, newest first.
func (s *Store) ListAll() ([]model.LinkRecord, error) {
	var records []model.LinkRecord
	if err := s.db.Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// GetStats aggregates table-wide counters.
func (s *Store) GetStats() (*Stats, error) {
	var stats Stats
	m := s.db.Model(&model.LinkRecord{})
	if err := m.Count(&stats.TotalLinks).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&model.LinkRecord{}).
		Select("COALESCE(SUM(click_count), 0)").Scan(&stats.TotalClicks).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&model.LinkRecord{}).
		Where("active = ?", true).Count(&stats.ActiveLinks).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&model.LinkRecord{}).
		Where("active = ?", false).Count(&stats.Reclaimable).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

// CodeInUse reports whether an active record currently holds code.
// Used by the allocator to pre-screen candidates; the authoritative
// check remains CreateActive.
func (s *Store) CodeInUse(code string) (bool, error) {
	var count int64
	err := s.db.Model(&model.LinkRecord{}).
		Where("code = ? AND active = ?", code, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// RecycleOldestInactive revives the longest-idle inactive row with a
// new target, bounding code-space growth before fresh codes are
// minted. Returns the revived record, or ErrNotFound when the pool is
// empty. Losing a race for the row also reports ErrNotFound; the
// caller falls back to random allocation.
func (s *Store) RecycleOldestInactive(targetURL string, monetize bool) (*model.LinkRecord, error) {
	now := s.clock.Now()
	var rec model.LinkRecord

	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("active = ?", false).
			Order("last_access_at ASC").
			First(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		res := tx.Model(&model.LinkRecord{}).
			Where("code = ? AND active = ?", rec.Code, false).
			Updates(map[string]interface{}{
				"target_url":     targetURL,
				"click_count":    0,
				"active":         true,
				"never_expires":  false,
				"monetize":       monetize,
				"created_at":     now,
				"last_access_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("code = ?", rec.Code).First(&rec).Error
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Sweep deactivates every live record idle for longer than threshold,
// skipping never-expires codes. Records are reclaimed one UPDATE at a
// time, and each UPDATE re-checks staleness in its WHERE clause: a
// redirect that refreshed last_access_at after the candidate scan
// simply makes the UPDATE match nothing. Returns the codes reclaimed
// so callers can drop cache entries.
func (s *Store) Sweep(threshold time.Duration) ([]string, error) {
	cutoff := s.clock.Now().Add(-threshold)

	var candidates []string
	err := s.db.Model(&model.LinkRecord{}).
		Where("active = ? AND never_expires = ? AND last_access_at < ?", true, false, cutoff).
		Pluck("code", &candidates).Error
	if err != nil {
		return nil, err
	}

	reclaimed := make([]string, 0, len(candidates))
	for _, code := range candidates {
		res := s.db.Model(&model.LinkRecord{}).
			Where("code = ? AND active = ? AND never_expires = ? AND last_access_at < ?",
				code, true, false, cutoff).
			Update("active", false)
		if res.Error != nil {
			return reclaimed, res.Error
		}
		if res.RowsAffected == 1 {
			reclaimed = append(reclaimed, code)
		}
	}
	return reclaimed, nil
}
