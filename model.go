package zensegur

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	FieldID          = "_id"
	FieldName        = "name"
	FieldIngredients = "ingredients"
	FieldPrepTime    = "prepTimeInMinutes"
)

type Recipe struct {
	ID                primitive.ObjectID `json:"id,omitempty"`
	Name              string             `json:"name" validate:"required"`
	Ingredients       []string           `json:"ingredients"`
	PrepTimeInMinutes int                `json:"prepTimeInMinutes" validate:"gte=0"`
}

// NewRecipe returns the empty recipe the decoder starts from.
func NewRecipe() Recipe {
	return Recipe{Ingredients: []string{}}
}

func (r Recipe) IngredientCount() int {
	return len(r.Ingredients)
}

func (r Recipe) HasIngredient(ingredient string) bool {
	for _, i := range r.Ingredients {
		if i == ingredient {
			return true
		}
	}
	return false
}

func (r Recipe) String() string {
	var sb strings.Builder
	sb.WriteString("Recipe{")
	sb.WriteString("name=" + r.Name)
	sb.WriteString(", ingredients=[" + strings.Join(r.Ingredients, ", ") + "]")
	sb.WriteString(fmt.Sprintf(", prepTimeInMinutes=%d", r.PrepTimeInMinutes))
	sb.WriteByte('}')
	return sb.String()
}

// SeedRecipes returns a fresh copy of the sample recipes on every call.
func SeedRecipes() []Recipe {
	return []Recipe{
		{
			Name:              "elotes",
			Ingredients:       []string{"corn", "mayonnaise", "cotija cheese", "sour cream", "lime"},
			PrepTimeInMinutes: 35,
		},
		{
			Name:              "loco moco",
			Ingredients:       []string{"ground beef", "butter", "onion", "egg", "bread bun", "mushrooms"},
			PrepTimeInMinutes: 54,
		},
		{
			Name:              "patatas bravas",
			Ingredients:       []string{"potato", "tomato", "olive oil", "onion", "garlic", "paprika"},
			PrepTimeInMinutes: 80,
		},
		{
			Name:              "fried rice",
			Ingredients:       []string{"rice", "soy sauce", "egg", "onion", "pea", "carrot", "sesame oil"},
			PrepTimeInMinutes: 40,
		},
	}
}
