package follow

import (
	"context"
	"errors"

	"foodgram/domain"
	"foodgram/entities"
	"foodgram/pkg/recipe"
	"foodgram/pkg/user"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	FollowService interface {
		Subscribe(ctx context.Context, userID, authorID string, recipesLimit int) (domain.ProfileResponse, error)
		Unsubscribe(ctx context.Context, userID, authorID string) error
		GetSubscriptions(ctx context.Context, userID string, page, limit, recipesLimit int) ([]domain.ProfileResponse, int64, error)
	}

	followService struct {
		followRepository FollowRepository
		userRepository   user.UserRepository
		recipeRepository recipe.RecipeRepository
	}
)

func NewFollowService(
	followRepository FollowRepository,
	userRepository user.UserRepository,
	recipeRepository recipe.RecipeRepository,
) FollowService {
	return &followService{
		followRepository: followRepository,
		userRepository:   userRepository,
		recipeRepository: recipeRepository,
	}
}

func (s *followService) Subscribe(ctx context.Context, userID, authorID string, recipesLimit int) (domain.ProfileResponse, error) {
	if userID == authorID {
		return domain.ProfileResponse{}, domain.ErrSelfFollow
	}

	author, err := s.userRepository.GetUserByID(ctx, authorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ProfileResponse{}, domain.ErrUserNotFound
		}
		return domain.ProfileResponse{}, err
	}

	exists, err := s.followRepository.HasFollow(ctx, userID, authorID)
	if err != nil {
		return domain.ProfileResponse{}, err
	}
	if exists {
		return domain.ProfileResponse{}, domain.ErrAlreadyFollowing
	}

	followerUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.ProfileResponse{}, domain.ErrParseUUID
	}

	follow := &entities.Follow{
		ID:         uuid.New(),
		FollowerID: followerUUID,
		FolloweeID: author.ID,
	}
	if err := s.followRepository.CreateFollow(ctx, follow); err != nil {
		return domain.ProfileResponse{}, err
	}

	return s.buildProfile(ctx, author, userID, recipesLimit)
}

func (s *followService) Unsubscribe(ctx context.Context, userID, authorID string) error {
	exists, err := s.followRepository.HasFollow(ctx, userID, authorID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrFollowNotFound
	}
	return s.followRepository.DeleteFollow(ctx, userID, authorID)
}

func (s *followService) GetSubscriptions(ctx context.Context, userID string, page, limit, recipesLimit int) ([]domain.ProfileResponse, int64, error) {
	authors, count, err := s.followRepository.GetFollowees(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	profiles := make([]domain.ProfileResponse, 0, len(authors))
	for _, author := range authors {
		profile, err := s.buildProfile(ctx, author, userID, recipesLimit)
		if err != nil {
			return nil, 0, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, count, nil
}

// buildProfile renders the followed author together with their recipes,
// truncated to recipesLimit when positive; recipes_count stays untruncated.
func (s *followService) buildProfile(ctx context.Context, author *entities.User, viewerID string, recipesLimit int) (domain.ProfileResponse, error) {
	isSubscribed, err := s.followRepository.HasFollow(ctx, viewerID, author.ID.String())
	if err != nil {
		return domain.ProfileResponse{}, err
	}

	recipes, total, err := s.recipeRepository.GetRecipesByAuthor(ctx, author.ID.String(), recipesLimit)
	if err != nil {
		return domain.ProfileResponse{}, err
	}

	summaries := make([]domain.RecipeSummary, 0, len(recipes))
	for _, rec := range recipes {
		summaries = append(summaries, domain.RecipeSummary{
			ID:          rec.ID.String(),
			Name:        rec.Name,
			Image:       rec.ImageURL,
			CookingTime: rec.CookingTime,
		})
	}

	return domain.ProfileResponse{
		ID:           author.ID.String(),
		Email:        author.Email,
		Username:     author.Username,
		FirstName:    author.FirstName,
		LastName:     author.LastName,
		IsSubscribed: isSubscribed,
		Recipes:      summaries,
		RecipesCount: total,
	}, nil
}
