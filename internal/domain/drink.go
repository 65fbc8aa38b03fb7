package domain

import "time"

// Ingredient is one component of a drink recipe. Parts expresses the
// ingredient's share of the drink relative to the other ingredients.
type Ingredient struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Parts int    `json:"parts"`
}

type Drink struct {
	ID        int64
	Title     string
	Recipe    []Ingredient
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DrinkPatch carries a partial update. Nil fields are left untouched.
type DrinkPatch struct {
	Title  *string
	Recipe []Ingredient
}
