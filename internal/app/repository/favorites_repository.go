package repository

import (
	"github.com/ikkim/must-canteen/internal/app/model"
	"github.com/ikkim/must-canteen/pkg/logger"
)

// FavoritesRepository persists the device's favorite sets.
type FavoritesRepository interface {
	Load() (model.Favorites, error)
	Save(favorites model.Favorites) error
}

type favoritesRepository struct {
	kv KVStore
}

func NewFavoritesRepository(kv KVStore) FavoritesRepository {
	return &favoritesRepository{kv: kv}
}

func (r *favoritesRepository) Load() (model.Favorites, error) {
	var favorites model.Favorites
	found, err := loadJSON(r.kv, KeyFavorites, &favorites)
	if err != nil {
		logger.Warn("Discarding unreadable favorites record", map[string]interface{}{
			"error": err.Error(),
		})
		return model.Favorites{Stalls: []string{}, Dishes: []string{}}, nil
	}
	if !found {
		return model.Favorites{Stalls: []string{}, Dishes: []string{}}, nil
	}
	return favorites.Clone(), nil
}

func (r *favoritesRepository) Save(favorites model.Favorites) error {
	return saveJSON(r.kv, KeyFavorites, favorites)
}
