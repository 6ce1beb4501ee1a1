package settings

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/fitaichain/fitchain/internal/models"

	"gorm.io/gorm"
)

var (
	snapshotMu sync.RWMutex
	snapshot   map[string]json.RawMessage
)

// Reload replaces the cached settings snapshot from the database.
func Reload(conn *gorm.DB) error {
	if conn == nil {
		return nil
	}
	var rows []models.Setting
	if errFind := conn.Find(&rows).Error; errFind != nil {
		return errFind
	}
	next := make(map[string]json.RawMessage, len(rows))
	for _, row := range rows {
		if row.Key == "" || len(row.Value) == 0 {
			continue
		}
		next[row.Key] = json.RawMessage(row.Value)
	}
	snapshotMu.Lock()
	snapshot = next
	snapshotMu.Unlock()
	return nil
}

// DBConfigValue returns the cached raw JSON value for a settings key.
func DBConfigValue(key string) (json.RawMessage, bool) {
	snapshotMu.RLock()
	defer snapshotMu.RUnlock()
	value, ok := snapshot[key]
	return value, ok
}

// SiteName returns the configured site name, or the default when unset.
func SiteName() string {
	raw, ok := DBConfigValue(SiteNameKey)
	if !ok {
		return DefaultSiteName
	}
	var name string
	if errUnmarshal := json.Unmarshal(raw, &name); errUnmarshal != nil || strings.TrimSpace(name) == "" {
		return DefaultSiteName
	}
	return strings.TrimSpace(name)
}
