package service

import (
	"sync"

	"github.com/ikkim/must-canteen/internal/app/model"
	"github.com/ikkim/must-canteen/internal/app/repository"
	"github.com/ikkim/must-canteen/pkg/logger"
)

// FavoritesService toggles the device's favorite stalls and dishes.
// Membership reads are ungated.
type FavoritesService interface {
	ToggleStall(id string) (bool, error)
	ToggleDish(id string) (bool, error)
	IsFavoriteStall(id string) bool
	IsFavoriteDish(id string) bool
	Favorites() model.Favorites
}

type favoritesService struct {
	mu        sync.Mutex
	favorites model.Favorites
	repo      repository.FavoritesRepository
	gate      *AuthGate
	notifier  Notifier
}

func NewFavoritesService(repo repository.FavoritesRepository, gate *AuthGate, notifier Notifier) FavoritesService {
	favorites, err := repo.Load()
	if err != nil {
		logger.Warn("Starting with empty favorites", map[string]interface{}{
			"error": err.Error(),
		})
		favorites = model.Favorites{Stalls: []string{}, Dishes: []string{}}
	}
	return &favoritesService{favorites: favorites, repo: repo, gate: gate, notifier: notifier}
}

func (s *favoritesService) ToggleStall(id string) (bool, error) {
	return s.toggle(id, model.Favorites.ToggleStall, "已收藏该档口")
}

func (s *favoritesService) ToggleDish(id string) (bool, error) {
	return s.toggle(id, model.Favorites.ToggleDish, "已收藏该菜品")
}

func (s *favoritesService) toggle(id string, flip func(model.Favorites, string) (model.Favorites, bool), addedMessage string) (bool, error) {
	if err := s.gate.guard(""); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, added := flip(s.favorites, id)
	if err := s.repo.Save(next); err != nil {
		logger.Error("Failed to persist favorites", err, map[string]interface{}{
			"id": id,
		})
		notifyError(s.notifier, "操作失败，请重试")
		return false, err
	}
	s.favorites = next

	logger.Debug("Favorite toggled", map[string]interface{}{
		"id":    id,
		"added": added,
	})
	if added {
		notifySuccess(s.notifier, addedMessage)
	} else {
		notifyInfo(s.notifier, "已取消收藏")
	}
	return added, nil
}

func (s *favoritesService) IsFavoriteStall(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.favorites.HasStall(id)
}

func (s *favoritesService) IsFavoriteDish(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.favorites.HasDish(id)
}

func (s *favoritesService) Favorites() model.Favorites {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.favorites.Clone()
}
