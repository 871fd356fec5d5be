package mongo

import (
	"context"
	"errors"

	"nutriplan/nutrition-app/internal/domain"
	"nutriplan/nutrition-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	ingredientCollectionName = "ingredients"
	recipeCollectionName     = "recipes"
)

// ingredientDoc is the slice of the external ingredient document this engine
// reads. Nutrition is stored per 100 units of the ingredient's natural unit.
type ingredientDoc struct {
	ID        string                `bson:"_id"`
	Nutrition domain.NutrientVector `bson:"nutrition"`
}

// recipeDoc is the slice of the external recipe document this engine reads.
type recipeDoc struct {
	ID        primitive.ObjectID    `bson:"_id"`
	Nutrition domain.NutrientVector `bson:"nutrition"`
}

// mongoNutrientCatalog implements repository.NutrientCatalog as a read-only
// accessor over the externally owned ingredient and recipe collections.
type mongoNutrientCatalog struct {
	ingredients *mongo.Collection
	recipes     *mongo.Collection
}

// NewMongoNutrientCatalog creates a nutrient catalog backed by MongoDB.
func NewMongoNutrientCatalog(db *mongo.Database) repository.NutrientCatalog {
	return &mongoNutrientCatalog{
		ingredients: db.Collection(ingredientCollectionName),
		recipes:     db.Collection(recipeCollectionName),
	}
}

// FindIngredient returns the per-100-unit nutrient vector of an ingredient.
func (c *mongoNutrientCatalog) FindIngredient(ctx context.Context, id string) (domain.NutrientVector, error) {
	var doc ingredientDoc
	err := c.ingredients.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.NutrientVector{}, repository.ErrNotFound
		}
		return domain.NutrientVector{}, err
	}
	return doc.Nutrition, nil
}

// FindRecipe returns the per-serving nutrient vector of a recipe.
func (c *mongoNutrientCatalog) FindRecipe(ctx context.Context, id primitive.ObjectID) (domain.NutrientVector, error) {
	var doc recipeDoc
	err := c.recipes.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.NutrientVector{}, repository.ErrNotFound
		}
		return domain.NutrientVector{}, err
	}
	return doc.Nutrition, nil
}
