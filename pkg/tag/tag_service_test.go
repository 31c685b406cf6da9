package tag

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"foodgram/domain"
	"foodgram/entities"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Tag{}))
	return db
}

func TestGetTags(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTagService(NewTagRepository(db))
	ctx := context.Background()

	for _, name := range []string{"Lunch", "Breakfast", "Dinner"} {
		require.NoError(t, db.Create(&entities.Tag{
			ID:    uuid.New(),
			Name:  name,
			Color: "#000000" + name,
			Slug:  strings.ToLower(name),
		}).Error)
	}

	tags, err := svc.GetTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 3)
	// ordered by name
	assert.Equal(t, "Breakfast", tags[0].Name)
	assert.Equal(t, "Dinner", tags[1].Name)
	assert.Equal(t, "Lunch", tags[2].Name)
}

func TestGetTagByIDNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTagService(NewTagRepository(db))

	_, err := svc.GetTagByID(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrTagNotFound)
}
