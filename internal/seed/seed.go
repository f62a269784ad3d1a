// Package seed writes bootstrap reference data at startup.
package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Jegx07/namma-madurai-engine/internal/gazetteer"
	"gorm.io/gorm"
)

// EnsureWards upserts the ward gazetteer into the wards table so SQL
// reporting can join ticket areas to display names and capacities. The
// in-process resolver stays the source of truth for request handling.
func EnsureWards(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	resolver := gazetteer.NewResolver()
	now := time.Now().UTC()

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, ward := range resolver.All() {
			err := tx.WithContext(ctx).Exec(
				`INSERT INTO wards (key, name, aliases, capacity, created_at)
				 VALUES (?, ?, ?, ?, ?)
				 ON CONFLICT (key) DO UPDATE SET
					name = EXCLUDED.name,
					aliases = EXCLUDED.aliases,
					capacity = EXCLUDED.capacity`,
				ward.Key,
				ward.Name,
				strings.Join(ward.Aliases, ","),
				ward.Capacity,
				now,
			).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}
