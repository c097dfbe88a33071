package repositories

import (
	"testing"

	"playarena/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// dryRunDB renders SQL without a server.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.Open("host=localhost user=playarena dbname=playarena sslmode=disable"), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db
}

func TestPaginate(t *testing.T) {
	db := dryRunDB(t)

	tests := []struct {
		name          string
		limit, offset int
		contains      []string
		absent        []string
	}{
		{name: "zero limit returns every row", absent: []string{"LIMIT", "OFFSET"}},
		{name: "limit only", limit: 20, contains: []string{"LIMIT 20"}, absent: []string{"OFFSET"}},
		{name: "limit and offset", limit: 20, offset: 40, contains: []string{"LIMIT 20", "OFFSET 40"}},
		{name: "offset without limit", offset: 5, contains: []string{"OFFSET 5"}, absent: []string{"LIMIT"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
				var rows []models.Transaction
				query := tx.Model(&models.Transaction{}).Where("user_id = ?", 7)
				return paginate(query.Order("created_at DESC, id DESC"), tt.limit, tt.offset).Find(&rows)
			})
			for _, s := range tt.contains {
				assert.Contains(t, sql, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, sql, s)
			}
		})
	}
}
