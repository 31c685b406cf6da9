package list

import (
	"context"

	"foodgram/domain"
	"foodgram/entities"

	"gorm.io/gorm"
)

type (
	ListRepository interface {
		AddFavorite(ctx context.Context, favorite *entities.Favorite) error
		RemoveFavorite(ctx context.Context, userID, recipeID string) error
		HasFavorite(ctx context.Context, userID, recipeID string) (bool, error)
		AddBasket(ctx context.Context, basket *entities.Basket) error
		RemoveBasket(ctx context.Context, userID, recipeID string) error
		HasBasket(ctx context.Context, userID, recipeID string) (bool, error)
		GetShoppingListItems(ctx context.Context, userID string) ([]domain.ShoppingListItem, error)
	}

	listRepository struct {
		db *gorm.DB
	}
)

func NewListRepository(db *gorm.DB) ListRepository {
	return &listRepository{db: db}
}

func (r *listRepository) AddFavorite(ctx context.Context, favorite *entities.Favorite) error {
	return r.db.WithContext(ctx).Create(favorite).Error
}

func (r *listRepository) RemoveFavorite(ctx context.Context, userID, recipeID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&entities.Favorite{}).Error
}

func (r *listRepository) HasFavorite(ctx context.Context, userID, recipeID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Favorite{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *listRepository) AddBasket(ctx context.Context, basket *entities.Basket) error {
	return r.db.WithContext(ctx).Create(basket).Error
}

func (r *listRepository) RemoveBasket(ctx context.Context, userID, recipeID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&entities.Basket{}).Error
}

func (r *listRepository) HasBasket(ctx context.Context, userID, recipeID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Basket{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetShoppingListItems aggregates ingredient usage across every recipe in the
// user's basket. Grouping is by (name, measurement unit), so two ingredient
// rows sharing both merge into one line.
func (r *listRepository) GetShoppingListItems(ctx context.Context, userID string) ([]domain.ShoppingListItem, error) {
	var items []domain.ShoppingListItem
	if err := r.db.WithContext(ctx).
		Model(&entities.IngredientUsage{}).
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(ingredient_usages.amount) AS amount").
		Joins("JOIN ingredients ON ingredients.id = ingredient_usages.ingredient_id").
		Joins("JOIN baskets ON baskets.recipe_id = ingredient_usages.recipe_id").
		Where("baskets.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name asc").
		Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
