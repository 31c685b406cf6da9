package domain

import "errors"

var (
	MessageSuccessAddFavorite      = "recipe added to favorites"
	MessageSuccessRemoveFavorite   = "recipe removed from favorites"
	MessageSuccessAddToBasket      = "recipe added to shopping cart"
	MessageSuccessRemoveFromBasket = "recipe removed from shopping cart"
	MessageSuccessDownloadShopping = "shopping list generated"

	MessageFailedAddFavorite      = "failed to add recipe to favorites"
	MessageFailedRemoveFavorite   = "failed to remove recipe from favorites"
	MessageFailedAddToBasket      = "failed to add recipe to shopping cart"
	MessageFailedRemoveFromBasket = "failed to remove recipe from shopping cart"
	MessageFailedDownloadShopping = "failed to generate shopping list"

	ErrAlreadyInFavorites = errors.New("recipe already added to favorites")
	ErrAlreadyInBasket    = errors.New("recipe already added to shopping cart")
	ErrNotInFavorites     = errors.New("recipe is not in favorites")
	ErrNotInBasket        = errors.New("recipe is not in shopping cart")
)

// ShoppingListHeader is the first line of every exported shopping list.
const ShoppingListHeader = "Shopping list:"

type (
	ShoppingListItem struct {
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		Amount          int    `json:"amount"`
	}

	ShoppingList struct {
		Filename string
		Content  string
	}
)
