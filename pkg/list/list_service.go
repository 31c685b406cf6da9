package list

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"foodgram/domain"
	"foodgram/entities"
	"foodgram/pkg/recipe"
	"foodgram/pkg/user"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	ListService interface {
		AddToFavorites(ctx context.Context, userID, recipeID string) (domain.RecipeSummary, error)
		RemoveFromFavorites(ctx context.Context, userID, recipeID string) error
		AddToBasket(ctx context.Context, userID, recipeID string) (domain.RecipeSummary, error)
		RemoveFromBasket(ctx context.Context, userID, recipeID string) error
		DownloadShoppingList(ctx context.Context, userID string) (domain.ShoppingList, error)
	}

	listService struct {
		listRepository   ListRepository
		recipeRepository recipe.RecipeRepository
		userRepository   user.UserRepository
	}
)

func NewListService(
	listRepository ListRepository,
	recipeRepository recipe.RecipeRepository,
	userRepository user.UserRepository,
) ListService {
	return &listService{
		listRepository:   listRepository,
		recipeRepository: recipeRepository,
		userRepository:   userRepository,
	}
}

func (s *listService) getRecipeSummary(ctx context.Context, recipeID string) (domain.RecipeSummary, *entities.Recipe, error) {
	rec, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeSummary{}, nil, domain.ErrRecipeNotFound
		}
		return domain.RecipeSummary{}, nil, err
	}

	return domain.RecipeSummary{
		ID:          rec.ID.String(),
		Name:        rec.Name,
		Image:       rec.ImageURL,
		CookingTime: rec.CookingTime,
	}, rec, nil
}

func (s *listService) AddToFavorites(ctx context.Context, userID, recipeID string) (domain.RecipeSummary, error) {
	summary, rec, err := s.getRecipeSummary(ctx, recipeID)
	if err != nil {
		return domain.RecipeSummary{}, err
	}

	exists, err := s.listRepository.HasFavorite(ctx, userID, recipeID)
	if err != nil {
		return domain.RecipeSummary{}, err
	}
	if exists {
		return domain.RecipeSummary{}, domain.ErrAlreadyInFavorites
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.RecipeSummary{}, domain.ErrParseUUID
	}

	favorite := &entities.Favorite{
		ID:       uuid.New(),
		UserID:   userUUID,
		RecipeID: rec.ID,
	}
	if err := s.listRepository.AddFavorite(ctx, favorite); err != nil {
		return domain.RecipeSummary{}, err
	}
	return summary, nil
}

func (s *listService) RemoveFromFavorites(ctx context.Context, userID, recipeID string) error {
	exists, err := s.listRepository.HasFavorite(ctx, userID, recipeID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotInFavorites
	}
	return s.listRepository.RemoveFavorite(ctx, userID, recipeID)
}

func (s *listService) AddToBasket(ctx context.Context, userID, recipeID string) (domain.RecipeSummary, error) {
	summary, rec, err := s.getRecipeSummary(ctx, recipeID)
	if err != nil {
		return domain.RecipeSummary{}, err
	}

	exists, err := s.listRepository.HasBasket(ctx, userID, recipeID)
	if err != nil {
		return domain.RecipeSummary{}, err
	}
	if exists {
		return domain.RecipeSummary{}, domain.ErrAlreadyInBasket
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.RecipeSummary{}, domain.ErrParseUUID
	}

	basket := &entities.Basket{
		ID:       uuid.New(),
		UserID:   userUUID,
		RecipeID: rec.ID,
	}
	if err := s.listRepository.AddBasket(ctx, basket); err != nil {
		return domain.RecipeSummary{}, err
	}
	return summary, nil
}

func (s *listService) RemoveFromBasket(ctx context.Context, userID, recipeID string) error {
	exists, err := s.listRepository.HasBasket(ctx, userID, recipeID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotInBasket
	}
	return s.listRepository.RemoveBasket(ctx, userID, recipeID)
}

func (s *listService) DownloadShoppingList(ctx context.Context, userID string) (domain.ShoppingList, error) {
	usr, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ShoppingList{}, domain.ErrUserNotFound
		}
		return domain.ShoppingList{}, err
	}

	items, err := s.listRepository.GetShoppingListItems(ctx, userID)
	if err != nil {
		return domain.ShoppingList{}, err
	}

	var sb strings.Builder
	sb.WriteString(domain.ShoppingListHeader + "\n")
	for _, item := range items {
		sb.WriteString(fmt.Sprintf("%s: %d %s\n", item.Name, item.Amount, item.MeasurementUnit))
	}

	return domain.ShoppingList{
		Filename: fmt.Sprintf("%s_shopping_list.txt", usr.Username),
		Content:  sb.String(),
	}, nil
}
