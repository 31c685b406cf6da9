package seed

import (
	"context"
	"log"
	"os"

	"foodgram/internal/utils"
	"foodgram/pkg/ingredient"

	"gorm.io/gorm"
)

// SeedIngredients loads the ingredient reference data from the CSV configured
// under INGREDIENTS_CSV. Missing file or already-populated table is not an
// error; the seeder runs on every startup.
func SeedIngredients(db *gorm.DB) error {
	path := utils.GetConfig("INGREDIENTS_CSV")
	if path == "" {
		path = "data/ingredients.csv"
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("ingredient seed file %s not found, skipping", path)
			return nil
		}
		return err
	}
	defer file.Close()

	service := ingredient.NewIngredientService(ingredient.NewIngredientRepository(db))
	imported, err := service.ImportCSV(context.Background(), file)
	if err != nil {
		return err
	}
	if imported > 0 {
		log.Printf("imported %d ingredients from %s", imported, path)
	}
	return nil
}
