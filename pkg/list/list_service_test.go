package list

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"foodgram/domain"
	"foodgram/entities"
	"foodgram/pkg/recipe"
	"foodgram/pkg/user"

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

func newTestService(db *gorm.DB) ListService {
	return NewListService(
		NewListRepository(db),
		recipe.NewRecipeRepository(db),
		user.NewUserRepository(db),
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

type usageSpec struct {
	ingredient *entities.Ingredient
	amount     int
}

func createTestRecipe(t *testing.T, db *gorm.DB, author *entities.User, name string, usages ...usageSpec) *entities.Recipe {
	t.Helper()
	rec := &entities.Recipe{
		ID:          uuid.New(),
		AuthorID:    author.ID,
		Name:        name,
		ImageURL:    "https://cdn.test/recipes/" + name + ".jpg",
		Text:        "text",
		CookingTime: 10,
	}
	require.NoError(t, db.Create(rec).Error)
	for _, u := range usages {
		require.NoError(t, db.Create(&entities.IngredientUsage{
			ID:           uuid.New(),
			RecipeID:     rec.ID,
			IngredientID: u.ingredient.ID,
			Amount:       u.amount,
		}).Error)
	}
	return rec
}

func TestAddToFavoritesDuplicate(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	ctx := context.Background()

	chef := createTestUser(t, db, "chef")
	fan := createTestUser(t, db, "fan")
	rec := createTestRecipe(t, db, chef, "Soup")

	summary, err := svc.AddToFavorites(ctx, fan.ID.String(), rec.ID.String())
	require.NoError(t, err)
	assert.Equal(t, rec.ID.String(), summary.ID)
	assert.Equal(t, "Soup", summary.Name)
	assert.Equal(t, 10, summary.CookingTime)

	_, err = svc.AddToFavorites(ctx, fan.ID.String(), rec.ID.String())
	assert.ErrorIs(t, err, domain.ErrAlreadyInFavorites)

	var count int64
	require.NoError(t, db.Model(&entities.Favorite{}).
		Where("user_id = ? AND recipe_id = ?", fan.ID, rec.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRemoveFromFavoritesTwice(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	ctx := context.Background()

	chef := createTestUser(t, db, "chef")
	fan := createTestUser(t, db, "fan")
	rec := createTestRecipe(t, db, chef, "Soup")

	_, err := svc.AddToFavorites(ctx, fan.ID.String(), rec.ID.String())
	require.NoError(t, err)

	require.NoError(t, svc.RemoveFromFavorites(ctx, fan.ID.String(), rec.ID.String()))
	err = svc.RemoveFromFavorites(ctx, fan.ID.String(), rec.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotInFavorites)
}

func TestAddToBasketUnknownRecipe(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	ctx := context.Background()

	fan := createTestUser(t, db, "fan")

	_, err := svc.AddToBasket(ctx, fan.ID.String(), uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)

	err = svc.RemoveFromBasket(ctx, fan.ID.String(), uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrNotInBasket)
}

func TestBasketMembershipIsIndependentOfFavorites(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	ctx := context.Background()

	chef := createTestUser(t, db, "chef")
	fan := createTestUser(t, db, "fan")
	rec := createTestRecipe(t, db, chef, "Soup")

	_, err := svc.AddToFavorites(ctx, fan.ID.String(), rec.ID.String())
	require.NoError(t, err)

	// the same recipe can still be added to the basket
	_, err = svc.AddToBasket(ctx, fan.ID.String(), rec.ID.String())
	require.NoError(t, err)

	_, err = svc.AddToBasket(ctx, fan.ID.String(), rec.ID.String())
	assert.ErrorIs(t, err, domain.ErrAlreadyInBasket)
}

func TestDownloadShoppingListMergesByNameAndUnit(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	ctx := context.Background()

	chef := createTestUser(t, db, "chef")
	fan := createTestUser(t, db, "fan")
	flour := createTestIngredient(t, db, "Flour", "g")

	bread := createTestRecipe(t, db, chef, "Bread", usageSpec{flour, 200})
	cake := createTestRecipe(t, db, chef, "Cake", usageSpec{flour, 300})

	_, err := svc.AddToBasket(ctx, fan.ID.String(), bread.ID.String())
	require.NoError(t, err)
	_, err = svc.AddToBasket(ctx, fan.ID.String(), cake.ID.String())
	require.NoError(t, err)

	list, err := svc.DownloadShoppingList(ctx, fan.ID.String())
	require.NoError(t, err)

	assert.Equal(t, "fan_shopping_list.txt", list.Filename)
	assert.Equal(t, domain.ShoppingListHeader+"\nFlour: 500 g\n", list.Content)
}

func TestDownloadShoppingListOrdersByName(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	ctx := context.Background()

	chef := createTestUser(t, db, "chef")
	fan := createTestUser(t, db, "fan")
	salt := createTestIngredient(t, db, "Salt", "g")
	water := createTestIngredient(t, db, "Water", "ml")

	soup := createTestRecipe(t, db, chef, "Soup", usageSpec{salt, 5}, usageSpec{water, 1000})

	_, err := svc.AddToBasket(ctx, fan.ID.String(), soup.ID.String())
	require.NoError(t, err)

	list, err := svc.DownloadShoppingList(ctx, fan.ID.String())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(list.Content, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, domain.ShoppingListHeader, lines[0])
	assert.Equal(t, "Salt: 5 g", lines[1])
	assert.Equal(t, "Water: 1000 ml", lines[2])
}

func TestDownloadShoppingListEmptyBasket(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	ctx := context.Background()

	fan := createTestUser(t, db, "fan")

	list, err := svc.DownloadShoppingList(ctx, fan.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.ShoppingListHeader+"\n", list.Content)
}

func TestDownloadShoppingListScopedToUser(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	ctx := context.Background()

	chef := createTestUser(t, db, "chef")
	fan := createTestUser(t, db, "fan")
	other := createTestUser(t, db, "other")
	flour := createTestIngredient(t, db, "Flour", "g")
	sugar := createTestIngredient(t, db, "Sugar", "g")

	bread := createTestRecipe(t, db, chef, "Bread", usageSpec{flour, 200})
	cake := createTestRecipe(t, db, chef, "Cake", usageSpec{sugar, 100})

	_, err := svc.AddToBasket(ctx, fan.ID.String(), bread.ID.String())
	require.NoError(t, err)
	_, err = svc.AddToBasket(ctx, other.ID.String(), cake.ID.String())
	require.NoError(t, err)

	list, err := svc.DownloadShoppingList(ctx, fan.ID.String())
	require.NoError(t, err)
	assert.Contains(t, list.Content, "Flour: 200 g")
	assert.NotContains(t, list.Content, "Sugar")
}
