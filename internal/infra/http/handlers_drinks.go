package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"coffeeshop/internal/domain"

	"github.com/gin-gonic/gin"
)

// drinkShortDoc hides ingredient names; the public menu only shows the
// visual composition of each drink.
type drinkShortDoc struct {
	ID     int64            `json:"id"`
	Title  string           `json:"title"`
	Recipe []ingredientHint `json:"recipe"`
}

type ingredientHint struct {
	Color string `json:"color"`
	Parts int    `json:"parts"`
}

type drinkLongDoc struct {
	ID     int64               `json:"id"`
	Title  string              `json:"title"`
	Recipe []domain.Ingredient `json:"recipe"`
}

type drinkBody struct {
	Title  string          `json:"title"`
	Recipe json.RawMessage `json:"recipe"`
}

func (s *Server) handleListDrinks(c *gin.Context) {
	drinks, err := s.drinks.List(c.Request.Context())
	if err != nil {
		s.writeStoreError(c, err)
		return
	}
	docs := make([]drinkShortDoc, 0, len(drinks))
	for _, drink := range drinks {
		docs = append(docs, shortDoc(drink))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "drinks": docs})
}

func (s *Server) handleListDrinksDetail(c *gin.Context, _ domain.Principal) {
	drinks, err := s.drinks.List(c.Request.Context())
	if err != nil {
		s.writeStoreError(c, err)
		return
	}
	docs := make([]drinkLongDoc, 0, len(drinks))
	for _, drink := range drinks {
		docs = append(docs, longDoc(drink))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "drinks": docs})
}

func (s *Server) handleCreateDrink(c *gin.Context, _ domain.Principal) {
	var body drinkBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusUnprocessableEntity, "unprocessable")
		return
	}
	recipe, err := parseRecipe(body.Recipe)
	if err != nil {
		writeError(c, http.StatusUnprocessableEntity, "unprocessable")
		return
	}
	if body.Title == "" || len(recipe) == 0 {
		writeError(c, http.StatusUnprocessableEntity, "unprocessable")
		return
	}

	created, err := s.drinks.Create(c.Request.Context(), domain.Drink{
		Title:  body.Title,
		Recipe: recipe,
	})
	if err != nil {
		writeError(c, http.StatusBadRequest, "drink could not be created")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "drinks": []drinkLongDoc{longDoc(created)}})
}

func (s *Server) handleUpdateDrink(c *gin.Context, _ domain.Principal) {
	id, ok := drinkID(c)
	if !ok {
		return
	}
	var body drinkBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusUnprocessableEntity, "unprocessable")
		return
	}
	patch := domain.DrinkPatch{}
	if body.Title != "" {
		patch.Title = &body.Title
	}
	if len(body.Recipe) > 0 {
		recipe, err := parseRecipe(body.Recipe)
		if err != nil || len(recipe) == 0 {
			writeError(c, http.StatusUnprocessableEntity, "unprocessable")
			return
		}
		patch.Recipe = recipe
	}

	updated, err := s.drinks.Update(c.Request.Context(), id, patch)
	if err != nil {
		s.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "drinks": []drinkLongDoc{longDoc(updated)}})
}

func (s *Server) handleDeleteDrink(c *gin.Context, _ domain.Principal) {
	id, ok := drinkID(c)
	if !ok {
		return
	}
	if err := s.drinks.Delete(c.Request.Context(), id); err != nil {
		s.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "delete": id})
}

func drinkID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, http.StatusNotFound, "resource not found")
		return 0, false
	}
	return id, true
}

// parseRecipe accepts either an ingredient array or a single ingredient
// object, which some clients send for one-part drinks.
func parseRecipe(raw json.RawMessage) ([]domain.Ingredient, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var recipe []domain.Ingredient
	if err := json.Unmarshal(raw, &recipe); err == nil {
		return recipe, nil
	}
	var single domain.Ingredient
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, err
	}
	return []domain.Ingredient{single}, nil
}

func (s *Server) writeStoreError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		writeError(c, http.StatusNotFound, "resource not found")
		return
	}
	s.logger.Error().
		Str("request_id", c.GetString(contextKeyRequestID)).
		Err(err).
		Msg("drink store failure")
	writeError(c, http.StatusInternalServerError, "internal server error")
}

func shortDoc(drink domain.Drink) drinkShortDoc {
	hints := make([]ingredientHint, 0, len(drink.Recipe))
	for _, ingredient := range drink.Recipe {
		hints = append(hints, ingredientHint{Color: ingredient.Color, Parts: ingredient.Parts})
	}
	return drinkShortDoc{ID: drink.ID, Title: drink.Title, Recipe: hints}
}

func longDoc(drink domain.Drink) drinkLongDoc {
	recipe := drink.Recipe
	if recipe == nil {
		recipe = []domain.Ingredient{}
	}
	return drinkLongDoc{ID: drink.ID, Title: drink.Title, Recipe: recipe}
}
