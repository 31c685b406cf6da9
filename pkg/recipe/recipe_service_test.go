package recipe

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"foodgram/domain"
	"foodgram/entities"
	"foodgram/pkg/ingredient"
	"foodgram/pkg/tag"
	"foodgram/pkg/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeStorage struct{}

func (fakeStorage) UploadFile(_ context.Context, key string, _ string, _ io.Reader) (string, error) {
	return "https://cdn.test/" + key, nil
}

func (fakeStorage) DeleteFile(_ context.Context, _ string) error { return nil }

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&entities.User{},
		&entities.Tag{},
		&entities.Ingredient{},
		&entities.Recipe{},
		&entities.IngredientUsage{},
		&entities.Favorite{},
		&entities.Basket{},
		&entities.Follow{},
	))
	return db
}

func newTestService(db *gorm.DB) RecipeService {
	return NewRecipeService(
		NewRecipeRepository(db),
		tag.NewTagRepository(db),
		ingredient.NewIngredientRepository(db),
		user.NewUserRepository(db),
		fakeStorage{},
	)
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *entities.User {
	t.Helper()
	u := &entities.User{
		ID:       uuid.New(),
		Email:    username + "@example.com",
		Username: username,
		Password: "hash",
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createTestTag(t *testing.T, db *gorm.DB, name string) *entities.Tag {
	t.Helper()
	tg := &entities.Tag{
		ID:    uuid.New(),
		Name:  name,
		Color: "#" + name,
		Slug:  strings.ToLower(name),
	}
	require.NoError(t, db.Create(tg).Error)
	return tg
}

func createTestIngredient(t *testing.T, db *gorm.DB, name, unit string) *entities.Ingredient {
	t.Helper()
	ing := &entities.Ingredient{
		ID:              uuid.New(),
		Name:            name,
		MeasurementUnit: unit,
	}
	require.NoError(t, db.Create(ing).Error)
	return ing
}

func testImage() string {
	return base64.StdEncoding.EncodeToString([]byte("not really a png"))
}

func TestCreateRecipeReturnsSubmittedSets(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	ctx := context.Background()

	author := createTestUser(t, db, "chef")
	lunch := createTestTag(t, db, "Lunch")
	dinner := createTestTag(t, db, "Dinner")
	salt := createTestIngredient(t, db, "Salt", "g")
	water := createTestIngredient(t, db, "Water", "ml")

	req := domain.CreateRecipeRequest{
		Name:        "Soup",
		Image:       testImage(),
		Text:        "Boil and season.",
		CookingTime: 30,
		Tags:        []string{dinner.ID.String(), lunch.ID.String()},
		Ingredients: []domain.RecipeIngredientRequest{
			{ID: salt.ID.String(), Amount: 5},
			{ID: water.ID.String(), Amount: 1000},
		},
	}

	detail, err := svc.CreateRecipe(ctx, req, author.ID.String())
	require.NoError(t, err)

	assert.Equal(t, "Soup", detail.Name)
	assert.Equal(t, author.Username, detail.Author.Username)
	assert.Equal(t, 30, detail.CookingTime)
	assert.True(t, strings.HasPrefix(detail.Image, "https://cdn.test/recipes/"))

	// tag order preserved as submitted
	require.Len(t, detail.Tags, 2)
	assert.Equal(t, "Dinner", detail.Tags[0].Name)
	assert.Equal(t, "Lunch", detail.Tags[1].Name)

	require.Len(t, detail.Ingredients, 2)
	assert.Equal(t, "Salt", detail.Ingredients[0].Name)
	assert.Equal(t, 5, detail.Ingredients[0].Amount)
	assert.Equal(t, "g", detail.Ingredients[0].MeasurementUnit)
	assert.Equal(t, "Water", detail.Ingredients[1].Name)
	assert.Equal(t, 1000, detail.Ingredients[1].Amount)

	// persisted representation matches too
	read, err := svc.GetRecipeDetail(ctx, detail.ID, "")
	require.NoError(t, err)
	assert.Len(t, read.Tags, 2)
	assert.Len(t, read.Ingredients, 2)
	assert.False(t, read.IsFavorited)
	assert.False(t, read.IsInShoppingCart)
}

func TestCreateRecipeValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	ctx := context.Background()

	author := createTestUser(t, db, "chef")
	lunch := createTestTag(t, db, "Lunch")
	salt := createTestIngredient(t, db, "Salt", "g")

	base := domain.CreateRecipeRequest{
		Name:        "Soup",
		Image:       testImage(),
		Text:        "text",
		CookingTime: 10,
		Tags:        []string{lunch.ID.String()},
		Ingredients: []domain.RecipeIngredientRequest{{ID: salt.ID.String(), Amount: 5}},
	}

	noTags := base
	noTags.Tags = nil
	_, err := svc.CreateRecipe(ctx, noTags, author.ID.String())
	assert.ErrorIs(t, err, domain.ErrEmptyTagList)

	noIngredients := base
	noIngredients.Ingredients = nil
	_, err = svc.CreateRecipe(ctx, noIngredients, author.ID.String())
	assert.ErrorIs(t, err, domain.ErrEmptyIngredients)

	unknownIngredient := base
	unknownIngredient.Ingredients = []domain.RecipeIngredientRequest{{ID: uuid.New().String(), Amount: 5}}
	_, err = svc.CreateRecipe(ctx, unknownIngredient, author.ID.String())
	assert.ErrorIs(t, err, domain.ErrIngredientNotFound)

	unknownTag := base
	unknownTag.Tags = []string{uuid.New().String()}
	_, err = svc.CreateRecipe(ctx, unknownTag, author.ID.String())
	assert.ErrorIs(t, err, domain.ErrTagNotFound)

	zeroTime := base
	zeroTime.CookingTime = 0
	_, err = svc.CreateRecipe(ctx, zeroTime, author.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvalidCookingTime)

	zeroAmount := base
	zeroAmount.Ingredients = []domain.RecipeIngredientRequest{{ID: salt.ID.String(), Amount: 0}}
	_, err = svc.CreateRecipe(ctx, zeroAmount, author.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	badImage := base
	badImage.Image = "not base64 at all!!!"
	_, err = svc.CreateRecipe(ctx, badImage, author.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvalidImage)

	// nothing partial was written
	var count int64
	require.NoError(t, db.Model(&entities.Recipe{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpdateRecipeByNonAuthor(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	ctx := context.Background()

	author := createTestUser(t, db, "chef")
	stranger := createTestUser(t, db, "stranger")
	lunch := createTestTag(t, db, "Lunch")
	salt := createTestIngredient(t, db, "Salt", "g")

	req := domain.CreateRecipeRequest{
		Name:        "Soup",
		Image:       testImage(),
		Text:        "text",
		CookingTime: 10,
		Tags:        []string{lunch.ID.String()},
		Ingredients: []domain.RecipeIngredientRequest{{ID: salt.ID.String(), Amount: 5}},
	}
	detail, err := svc.CreateRecipe(ctx, req, author.ID.String())
	require.NoError(t, err)

	update := domain.UpdateRecipeRequest{
		Name:        "Stolen Soup",
		Text:        "text",
		CookingTime: 10,
		Tags:        []string{lunch.ID.String()},
		Ingredients: []domain.RecipeIngredientRequest{{ID: salt.ID.String(), Amount: 5}},
	}
	_, err = svc.UpdateRecipe(ctx, detail.ID, update, stranger.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotRecipeAuthor)

	err = svc.DeleteRecipe(ctx, detail.ID, stranger.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotRecipeAuthor)

	// recipe unchanged
	read, err := svc.GetRecipeDetail(ctx, detail.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "Soup", read.Name)
}

func TestUpdateRecipeReplacesSets(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	ctx := context.Background()

	author := createTestUser(t, db, "chef")
	lunch := createTestTag(t, db, "Lunch")
	dinner := createTestTag(t, db, "Dinner")
	salt := createTestIngredient(t, db, "Salt", "g")
	flour := createTestIngredient(t, db, "Flour", "g")

	detail, err := svc.CreateRecipe(ctx, domain.CreateRecipeRequest{
		Name:        "Bread",
		Image:       testImage(),
		Text:        "text",
		CookingTime: 60,
		Tags:        []string{lunch.ID.String()},
		Ingredients: []domain.RecipeIngredientRequest{{ID: salt.ID.String(), Amount: 5}},
	}, author.ID.String())
	require.NoError(t, err)

	updated, err := svc.UpdateRecipe(ctx, detail.ID, domain.UpdateRecipeRequest{
		Name:        "Bread v2",
		Text:        "text",
		CookingTime: 45,
		Tags:        []string{dinner.ID.String()},
		Ingredients: []domain.RecipeIngredientRequest{{ID: flour.ID.String(), Amount: 500}},
	}, author.ID.String())
	require.NoError(t, err)

	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "Dinner", updated.Tags[0].Name)
	require.Len(t, updated.Ingredients, 1)
	assert.Equal(t, "Flour", updated.Ingredients[0].Name)
	assert.Equal(t, 500, updated.Ingredients[0].Amount)

	var usageCount int64
	require.NoError(t, db.Model(&entities.IngredientUsage{}).
		Where("recipe_id = ?", detail.ID).Count(&usageCount).Error)
	assert.EqualValues(t, 1, usageCount)
}

func TestDeleteRecipeCascades(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	ctx := context.Background()

	author := createTestUser(t, db, "chef")
	fan := createTestUser(t, db, "fan")
	lunch := createTestTag(t, db, "Lunch")
	salt := createTestIngredient(t, db, "Salt", "g")

	detail, err := svc.CreateRecipe(ctx, domain.CreateRecipeRequest{
		Name:        "Soup",
		Image:       testImage(),
		Text:        "text",
		CookingTime: 10,
		Tags:        []string{lunch.ID.String()},
		Ingredients: []domain.RecipeIngredientRequest{{ID: salt.ID.String(), Amount: 5}},
	}, author.ID.String())
	require.NoError(t, err)

	recipeID := uuid.MustParse(detail.ID)
	require.NoError(t, db.Create(&entities.Favorite{ID: uuid.New(), UserID: fan.ID, RecipeID: recipeID}).Error)
	require.NoError(t, db.Create(&entities.Basket{ID: uuid.New(), UserID: fan.ID, RecipeID: recipeID}).Error)

	require.NoError(t, svc.DeleteRecipe(ctx, detail.ID, author.ID.String()))

	for _, model := range []any{
		&entities.IngredientUsage{},
		&entities.Favorite{},
		&entities.Basket{},
	} {
		var count int64
		require.NoError(t, db.Model(model).Where("recipe_id = ?", detail.ID).Count(&count).Error)
		assert.Zero(t, count)
	}

	_, err = svc.GetRecipeDetail(ctx, detail.ID, "")
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

func TestGetRecipeDetailViewerFlags(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	ctx := context.Background()

	author := createTestUser(t, db, "chef")
	fan := createTestUser(t, db, "fan")
	lunch := createTestTag(t, db, "Lunch")
	salt := createTestIngredient(t, db, "Salt", "g")

	detail, err := svc.CreateRecipe(ctx, domain.CreateRecipeRequest{
		Name:        "Soup",
		Image:       testImage(),
		Text:        "text",
		CookingTime: 10,
		Tags:        []string{lunch.ID.String()},
		Ingredients: []domain.RecipeIngredientRequest{{ID: salt.ID.String(), Amount: 5}},
	}, author.ID.String())
	require.NoError(t, err)

	recipeID := uuid.MustParse(detail.ID)
	require.NoError(t, db.Create(&entities.Favorite{ID: uuid.New(), UserID: fan.ID, RecipeID: recipeID}).Error)

	read, err := svc.GetRecipeDetail(ctx, detail.ID, fan.ID.String())
	require.NoError(t, err)
	assert.True(t, read.IsFavorited)
	assert.False(t, read.IsInShoppingCart)

	anonymous, err := svc.GetRecipeDetail(ctx, detail.ID, "")
	require.NoError(t, err)
	assert.False(t, anonymous.IsFavorited)
	assert.False(t, anonymous.IsInShoppingCart)
}

func TestGetRecipesFilters(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	ctx := context.Background()

	author := createTestUser(t, db, "chef")
	other := createTestUser(t, db, "other")
	fan := createTestUser(t, db, "fan")
	lunch := createTestTag(t, db, "Lunch")
	dinner := createTestTag(t, db, "Dinner")
	salt := createTestIngredient(t, db, "Salt", "g")

	mkRecipe := func(name, authorID string, tagID string, createdAt time.Time) string {
		detail, err := svc.CreateRecipe(ctx, domain.CreateRecipeRequest{
			Name:        name,
			Image:       testImage(),
			Text:        "text",
			CookingTime: 10,
			Tags:        []string{tagID},
			Ingredients: []domain.RecipeIngredientRequest{{ID: salt.ID.String(), Amount: 1}},
		}, authorID)
		require.NoError(t, err)
		require.NoError(t, db.Model(&entities.Recipe{}).
			Where("id = ?", detail.ID).
			Update("created_at", createdAt).Error)
		return detail.ID
	}

	now := time.Now()
	mkRecipe("Soup", author.ID.String(), lunch.ID.String(), now.Add(-2*time.Hour))
	stewID := mkRecipe("Stew", author.ID.String(), dinner.ID.String(), now.Add(-1*time.Hour))
	mkRecipe("Cake", other.ID.String(), dinner.ID.String(), now)

	// author filter, newest-first
	recipes, count, err := svc.GetRecipes(ctx, domain.RecipeQuery{
		Author: author.ID.String(), Page: 1, Limit: 10,
	}, "")
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	require.Len(t, recipes, 2)
	assert.Equal(t, "Stew", recipes[0].Name)
	assert.Equal(t, "Soup", recipes[1].Name)

	// tag filter
	recipes, count, err = svc.GetRecipes(ctx, domain.RecipeQuery{
		TagSlugs: []string{"lunch"}, Page: 1, Limit: 10,
	}, "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Soup", recipes[0].Name)

	// favorited filter scoped to viewer
	require.NoError(t, db.Create(&entities.Favorite{
		ID: uuid.New(), UserID: fan.ID, RecipeID: uuid.MustParse(stewID),
	}).Error)
	recipes, count, err = svc.GetRecipes(ctx, domain.RecipeQuery{
		IsFavorited: true, Page: 1, Limit: 10,
	}, fan.ID.String())
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Stew", recipes[0].Name)

	// same filter is ignored for anonymous viewers
	_, count, err = svc.GetRecipes(ctx, domain.RecipeQuery{
		IsFavorited: true, Page: 1, Limit: 10,
	}, "")
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}
