package ingredient

import (
	"context"
	"encoding/csv"
	"errors"
	"io"

	"foodgram/domain"
	"foodgram/entities"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	IngredientService interface {
		GetIngredients(ctx context.Context, namePrefix string) ([]domain.IngredientResponse, error)
		GetIngredientByID(ctx context.Context, id string) (domain.IngredientResponse, error)
		ImportCSV(ctx context.Context, r io.Reader) (int, error)
	}

	ingredientService struct {
		ingredientRepository IngredientRepository
	}
)

func NewIngredientService(ingredientRepository IngredientRepository) IngredientService {
	return &ingredientService{ingredientRepository: ingredientRepository}
}

func (s *ingredientService) GetIngredients(ctx context.Context, namePrefix string) ([]domain.IngredientResponse, error) {
	ingredients, err := s.ingredientRepository.GetIngredients(ctx, namePrefix)
	if err != nil {
		return nil, err
	}

	result := make([]domain.IngredientResponse, 0, len(ingredients))
	for _, ing := range ingredients {
		result = append(result, domain.IngredientResponse{
			ID:              ing.ID.String(),
			Name:            ing.Name,
			MeasurementUnit: ing.MeasurementUnit,
		})
	}
	return result, nil
}

func (s *ingredientService) GetIngredientByID(ctx context.Context, id string) (domain.IngredientResponse, error) {
	ing, err := s.ingredientRepository.GetIngredientByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.IngredientResponse{}, domain.ErrIngredientNotFound
		}
		return domain.IngredientResponse{}, err
	}

	return domain.IngredientResponse{
		ID:              ing.ID.String(),
		Name:            ing.Name,
		MeasurementUnit: ing.MeasurementUnit,
	}, nil
}

// ImportCSV loads `name,measurement_unit` rows. The import is a no-op when
// ingredients already exist, so the seeder can run on every startup.
func (s *ingredientService) ImportCSV(ctx context.Context, r io.Reader) (int, error) {
	count, err := s.ingredientRepository.CountIngredients(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2

	// header row
	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, err
	}

	var ingredients []*entities.Ingredient
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
		ingredients = append(ingredients, &entities.Ingredient{
			ID:              uuid.New(),
			Name:            record[0],
			MeasurementUnit: record[1],
		})
	}

	if len(ingredients) == 0 {
		return 0, nil
	}

	if err := s.ingredientRepository.BulkCreateIngredients(ctx, ingredients); err != nil {
		return 0, err
	}
	return len(ingredients), nil
}
