package db

import (
	"context"
	"encoding/json"
	"errors"

	"coffeeshop/internal/domain"

	"gorm.io/gorm"
)

type DrinkRepository struct {
	db *gorm.DB
}

func NewDrinkRepository(db *gorm.DB) *DrinkRepository {
	return &DrinkRepository{db: db}
}

func (r *DrinkRepository) List(ctx context.Context) ([]domain.Drink, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []DrinkModel
	if err := r.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, err
	}
	drinks := make([]domain.Drink, 0, len(models))
	for _, model := range models {
		drink, err := model.toDomain()
		if err != nil {
			return nil, err
		}
		drinks = append(drinks, drink)
	}
	return drinks, nil
}

func (r *DrinkRepository) Get(ctx context.Context, id int64) (domain.Drink, error) {
	if r.db == nil {
		return domain.Drink{}, errDBUnavailable
	}
	var model DrinkModel
	err := r.db.WithContext(ctx).First(&model, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Drink{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Drink{}, err
	}
	return model.toDomain()
}

func (r *DrinkRepository) Create(ctx context.Context, drink domain.Drink) (domain.Drink, error) {
	if r.db == nil {
		return domain.Drink{}, errDBUnavailable
	}
	model, err := fromDomain(drink)
	if err != nil {
		return domain.Drink{}, err
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.Drink{}, err
	}
	return model.toDomain()
}

// Update applies a partial patch to an existing drink inside one
// transaction and returns the stored result.
func (r *DrinkRepository) Update(ctx context.Context, id int64, patch domain.DrinkPatch) (domain.Drink, error) {
	if r.db == nil {
		return domain.Drink{}, errDBUnavailable
	}
	var model DrinkModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&model, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		if patch.Title != nil {
			model.Title = *patch.Title
		}
		if patch.Recipe != nil {
			recipeJSON, err := json.Marshal(patch.Recipe)
			if err != nil {
				return err
			}
			model.Recipe = recipeJSON
		}
		return tx.Save(&model).Error
	})
	if err != nil {
		return domain.Drink{}, err
	}
	return model.toDomain()
}

func (r *DrinkRepository) Delete(ctx context.Context, id int64) error {
	if r.db == nil {
		return errDBUnavailable
	}
	result := r.db.WithContext(ctx).Delete(&DrinkModel{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (m DrinkModel) toDomain() (domain.Drink, error) {
	var recipe []domain.Ingredient
	if len(m.Recipe) > 0 {
		if err := json.Unmarshal(m.Recipe, &recipe); err != nil {
			return domain.Drink{}, err
		}
	}
	return domain.Drink{
		ID:        m.ID,
		Title:     m.Title,
		Recipe:    recipe,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

func fromDomain(drink domain.Drink) (DrinkModel, error) {
	recipeJSON, err := json.Marshal(drink.Recipe)
	if err != nil {
		return DrinkModel{}, err
	}
	return DrinkModel{
		ID:     drink.ID,
		Title:  drink.Title,
		Recipe: recipeJSON,
	}, nil
}
