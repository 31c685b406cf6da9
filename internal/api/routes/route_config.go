package routes

import (
	"foodgram/internal/api/handlers"
	"foodgram/internal/middleware"
	"foodgram/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

type Config struct {
	App               *fiber.App
	UserHandler       handlers.UserHandler
	TagHandler        handlers.TagHandler
	IngredientHandler handlers.IngredientHandler
	RecipeHandler     handlers.RecipeHandler
	ListHandler       handlers.ListHandler
	FollowHandler     handlers.FollowHandler
	Middleware        middleware.Middleware
	JWTService        jwt.JWTService
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.User()
	c.Tags()
	c.Ingredients()
	c.Recipes()
	c.GuestRoute()
}

func (c *Config) User() {
	user := c.App.Group("/api/v1/users")
	auth := c.Middleware.AuthMiddleware(c.JWTService)
	{
		user.Post("/register", c.UserHandler.Register)
		user.Post("/login", c.UserHandler.Login)
		user.Get("/verify", c.UserHandler.VerifyEmail)
		user.Get("/me", auth, c.UserHandler.Me)
		user.Patch("/update", auth, c.UserHandler.UpdateUser)

		user.Get("/subscriptions", auth, c.FollowHandler.GetSubscriptions)
		user.Post("/:id/subscribe", auth, c.FollowHandler.Subscribe)
		user.Delete("/:id/subscribe", auth, c.FollowHandler.Unsubscribe)
	}
}

func (c *Config) Tags() {
	tags := c.App.Group("/api/v1/tags")
	tags.Get("", c.TagHandler.GetTags)
	tags.Get("/:id", c.TagHandler.GetTagDetail)
}

func (c *Config) Ingredients() {
	ingredients := c.App.Group("/api/v1/ingredients")
	ingredients.Get("", c.IngredientHandler.GetIngredients)
	ingredients.Get("/:id", c.IngredientHandler.GetIngredientDetail)
}

func (c *Config) Recipes() {
	recipes := c.App.Group("/api/v1/recipes")
	auth := c.Middleware.AuthMiddleware(c.JWTService)
	softAuth := c.Middleware.SoftAuthMiddleware(c.JWTService)

	// static path before the :id routes
	recipes.Get("/download_shopping_cart", auth, c.ListHandler.DownloadShoppingCart)

	recipes.Get("", softAuth, c.RecipeHandler.GetRecipes)
	recipes.Get("/:id", softAuth, c.RecipeHandler.GetRecipeDetail)
	recipes.Post("", auth, c.RecipeHandler.CreateRecipe)
	recipes.Patch("/:id", auth, c.RecipeHandler.UpdateRecipe)
	recipes.Delete("/:id", auth, c.RecipeHandler.DeleteRecipe)

	recipes.Post("/:id/favorite", auth, c.ListHandler.AddToFavorites)
	recipes.Delete("/:id/favorite", auth, c.ListHandler.RemoveFromFavorites)
	recipes.Post("/:id/shopping_cart", auth, c.ListHandler.AddToShoppingCart)
	recipes.Delete("/:id/shopping_cart", auth, c.ListHandler.RemoveFromShoppingCart)
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})
}
