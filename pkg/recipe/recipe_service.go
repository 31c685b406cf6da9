package recipe

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"foodgram/domain"
	"foodgram/entities"
	"foodgram/internal/utils/storage"
	"foodgram/pkg/ingredient"
	"foodgram/pkg/tag"
	"foodgram/pkg/user"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	RecipeService interface {
		GetRecipes(ctx context.Context, query domain.RecipeQuery, viewerID string) ([]domain.RecipeDetail, int64, error)
		GetRecipeDetail(ctx context.Context, recipeID string, viewerID string) (domain.RecipeDetail, error)
		CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, authorID string) (domain.RecipeDetail, error)
		UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, userID string) (domain.RecipeDetail, error)
		DeleteRecipe(ctx context.Context, recipeID string, userID string) error
	}

	recipeService struct {
		recipeRepository     RecipeRepository
		tagRepository        tag.TagRepository
		ingredientRepository ingredient.IngredientRepository
		userRepository       user.UserRepository
		s3                   storage.AwsS3
	}
)

func NewRecipeService(
	recipeRepository RecipeRepository,
	tagRepository tag.TagRepository,
	ingredientRepository ingredient.IngredientRepository,
	userRepository user.UserRepository,
	s3 storage.AwsS3,
) RecipeService {
	return &recipeService{
		recipeRepository:     recipeRepository,
		tagRepository:        tagRepository,
		ingredientRepository: ingredientRepository,
		userRepository:       userRepository,
		s3:                   s3,
	}
}

func (s *recipeService) GetRecipes(ctx context.Context, query domain.RecipeQuery, viewerID string) ([]domain.RecipeDetail, int64, error) {
	recipes, count, err := s.recipeRepository.GetRecipes(ctx, query, viewerID)
	if err != nil {
		return nil, 0, err
	}

	result := make([]domain.RecipeDetail, 0, len(recipes))
	for _, rec := range recipes {
		detail, err := s.toDetail(ctx, rec, viewerID)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, detail)
	}
	return result, count, nil
}

func (s *recipeService) GetRecipeDetail(ctx context.Context, recipeID string, viewerID string) (domain.RecipeDetail, error) {
	rec, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeDetail{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeDetail{}, err
	}
	return s.toDetail(ctx, rec, viewerID)
}

func (s *recipeService) CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, authorID string) (domain.RecipeDetail, error) {
	authorUUID, err := uuid.Parse(authorID)
	if err != nil {
		return domain.RecipeDetail{}, domain.ErrParseUUID
	}

	if req.CookingTime < 1 {
		return domain.RecipeDetail{}, domain.ErrInvalidCookingTime
	}

	tags, err := s.resolveTags(ctx, req.Tags)
	if err != nil {
		return domain.RecipeDetail{}, err
	}

	ingredients, err := s.resolveIngredients(ctx, req.Ingredients)
	if err != nil {
		return domain.RecipeDetail{}, err
	}

	imageURL, err := s.uploadImage(ctx, req.Image)
	if err != nil {
		return domain.RecipeDetail{}, err
	}

	rec := &entities.Recipe{
		ID:          uuid.New(),
		AuthorID:    authorUUID,
		Name:        req.Name,
		ImageURL:    imageURL,
		Text:        req.Text,
		CookingTime: req.CookingTime,
	}

	usages := make([]*entities.IngredientUsage, 0, len(req.Ingredients))
	for _, ing := range req.Ingredients {
		usages = append(usages, &entities.IngredientUsage{
			ID:           uuid.New(),
			RecipeID:     rec.ID,
			IngredientID: uuid.MustParse(ing.ID),
			Amount:       ing.Amount,
		})
	}

	if err := s.recipeRepository.CreateRecipe(ctx, rec, tags, usages); err != nil {
		return domain.RecipeDetail{}, err
	}

	return s.buildDetail(ctx, rec, tags, req.Ingredients, ingredients, authorID)
}

func (s *recipeService) UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, userID string) (domain.RecipeDetail, error) {
	rec, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeDetail{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeDetail{}, err
	}

	if rec.AuthorID.String() != userID {
		return domain.RecipeDetail{}, domain.ErrNotRecipeAuthor
	}

	if req.CookingTime < 1 {
		return domain.RecipeDetail{}, domain.ErrInvalidCookingTime
	}

	tags, err := s.resolveTags(ctx, req.Tags)
	if err != nil {
		return domain.RecipeDetail{}, err
	}

	ingredients, err := s.resolveIngredients(ctx, req.Ingredients)
	if err != nil {
		return domain.RecipeDetail{}, err
	}

	if req.Image != "" {
		imageURL, err := s.uploadImage(ctx, req.Image)
		if err != nil {
			return domain.RecipeDetail{}, err
		}
		rec.ImageURL = imageURL
	}

	rec.Name = req.Name
	rec.Text = req.Text
	rec.CookingTime = req.CookingTime
	rec.Tags = nil
	rec.Usages = nil
	rec.Author = nil

	usages := make([]*entities.IngredientUsage, 0, len(req.Ingredients))
	for _, ing := range req.Ingredients {
		usages = append(usages, &entities.IngredientUsage{
			ID:           uuid.New(),
			RecipeID:     rec.ID,
			IngredientID: uuid.MustParse(ing.ID),
			Amount:       ing.Amount,
		})
	}

	if err := s.recipeRepository.UpdateRecipe(ctx, rec, tags, usages); err != nil {
		return domain.RecipeDetail{}, err
	}

	return s.buildDetail(ctx, rec, tags, req.Ingredients, ingredients, userID)
}

func (s *recipeService) DeleteRecipe(ctx context.Context, recipeID string, userID string) error {
	rec, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeNotFound
		}
		return err
	}

	if rec.AuthorID.String() != userID {
		return domain.ErrNotRecipeAuthor
	}

	return s.recipeRepository.DeleteRecipe(ctx, recipeID)
}

// resolveTags checks every submitted tag id exists and returns the tags in
// the submitted order.
func (s *recipeService) resolveTags(ctx context.Context, ids []string) ([]*entities.Tag, error) {
	if len(ids) == 0 {
		return nil, domain.ErrEmptyTagList
	}

	found, err := s.tagRepository.GetTagsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*entities.Tag, len(found))
	for _, t := range found {
		byID[t.ID.String()] = t
	}

	tags := make([]*entities.Tag, 0, len(ids))
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			return nil, domain.ErrTagNotFound
		}
		tags = append(tags, t)
	}
	return tags, nil
}

func (s *recipeService) resolveIngredients(ctx context.Context, reqs []domain.RecipeIngredientRequest) (map[string]*entities.Ingredient, error) {
	if len(reqs) == 0 {
		return nil, domain.ErrEmptyIngredients
	}

	ids := make([]string, 0, len(reqs))
	for _, r := range reqs {
		if r.Amount < 1 {
			return nil, domain.ErrInvalidAmount
		}
		ids = append(ids, r.ID)
	}

	found, err := s.ingredientRepository.GetIngredientsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*entities.Ingredient, len(found))
	for _, ing := range found {
		byID[ing.ID.String()] = ing
	}

	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, domain.ErrIngredientNotFound
		}
	}
	return byID, nil
}

// uploadImage decodes a base64 payload (optionally a data URI) and stores it
// in object storage, returning the public URL.
func (s *recipeService) uploadImage(ctx context.Context, payload string) (string, error) {
	contentType := "image/jpeg"
	ext := ".jpg"

	if strings.HasPrefix(payload, "data:") {
		parts := strings.SplitN(payload, ",", 2)
		if len(parts) != 2 {
			return "", domain.ErrInvalidImage
		}
		meta := strings.TrimSuffix(strings.TrimPrefix(parts[0], "data:"), ";base64")
		if meta != "" {
			contentType = meta
			if idx := strings.Index(meta, "/"); idx >= 0 {
				ext = "." + meta[idx+1:]
			}
		}
		payload = parts[1]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", domain.ErrInvalidImage
	}

	key := fmt.Sprintf("recipes/%s%s", uuid.New().String(), ext)
	return s.s3.UploadFile(ctx, key, contentType, bytes.NewReader(data))
}

// buildDetail assembles the representation for create/update responses from
// the submitted tag and ingredient order.
func (s *recipeService) buildDetail(
	ctx context.Context,
	rec *entities.Recipe,
	tags []*entities.Tag,
	reqs []domain.RecipeIngredientRequest,
	ingredients map[string]*entities.Ingredient,
	viewerID string,
) (domain.RecipeDetail, error) {
	author, err := s.userRepository.GetUserByID(ctx, rec.AuthorID.String())
	if err != nil {
		return domain.RecipeDetail{}, err
	}

	detail := domain.RecipeDetail{
		ID: rec.ID.String(),
		Author: domain.UserResponse{
			ID:        author.ID.String(),
			Email:     author.Email,
			Username:  author.Username,
			FirstName: author.FirstName,
			LastName:  author.LastName,
		},
		Name:        rec.Name,
		Image:       rec.ImageURL,
		Text:        rec.Text,
		CookingTime: rec.CookingTime,
	}

	for _, t := range tags {
		detail.Tags = append(detail.Tags, domain.TagResponse{
			ID:    t.ID.String(),
			Name:  t.Name,
			Color: t.Color,
			Slug:  t.Slug,
		})
	}

	for _, req := range reqs {
		ing := ingredients[req.ID]
		detail.Ingredients = append(detail.Ingredients, domain.RecipeIngredientResponse{
			ID:              ing.ID.String(),
			Name:            ing.Name,
			MeasurementUnit: ing.MeasurementUnit,
			Amount:          req.Amount,
		})
	}

	if viewerID != "" {
		if detail.IsFavorited, err = s.recipeRepository.IsFavorited(ctx, viewerID, detail.ID); err != nil {
			return domain.RecipeDetail{}, err
		}
		if detail.IsInShoppingCart, err = s.recipeRepository.IsInBasket(ctx, viewerID, detail.ID); err != nil {
			return domain.RecipeDetail{}, err
		}
	}
	return detail, nil
}

// toDetail maps a fully-preloaded recipe entity to its read representation.
func (s *recipeService) toDetail(ctx context.Context, rec *entities.Recipe, viewerID string) (domain.RecipeDetail, error) {
	detail := domain.RecipeDetail{
		ID:          rec.ID.String(),
		Name:        rec.Name,
		Image:       rec.ImageURL,
		Text:        rec.Text,
		CookingTime: rec.CookingTime,
	}

	if rec.Author != nil {
		detail.Author = domain.UserResponse{
			ID:        rec.Author.ID.String(),
			Email:     rec.Author.Email,
			Username:  rec.Author.Username,
			FirstName: rec.Author.FirstName,
			LastName:  rec.Author.LastName,
		}
	}

	for _, t := range rec.Tags {
		detail.Tags = append(detail.Tags, domain.TagResponse{
			ID:    t.ID.String(),
			Name:  t.Name,
			Color: t.Color,
			Slug:  t.Slug,
		})
	}

	for _, usage := range rec.Usages {
		item := domain.RecipeIngredientResponse{
			ID:     usage.IngredientID.String(),
			Amount: usage.Amount,
		}
		if usage.Ingredient != nil {
			item.Name = usage.Ingredient.Name
			item.MeasurementUnit = usage.Ingredient.MeasurementUnit
		}
		detail.Ingredients = append(detail.Ingredients, item)
	}

	if viewerID != "" {
		var err error
		if detail.IsFavorited, err = s.recipeRepository.IsFavorited(ctx, viewerID, detail.ID); err != nil {
			return domain.RecipeDetail{}, err
		}
		if detail.IsInShoppingCart, err = s.recipeRepository.IsInBasket(ctx, viewerID, detail.ID); err != nil {
			return domain.RecipeDetail{}, err
		}
	}
	return detail, nil
}
