package service

import (
	"sort"
	"strings"

	"github.com/ikkim/must-canteen/internal/app/model"
	"github.com/ikkim/must-canteen/internal/app/repository"
)

type LeaderboardKind string

const (
	LeaderboardStalls LeaderboardKind = "stalls"
	LeaderboardDishes LeaderboardKind = "dishes"
)

type LeaderboardMetric string

const (
	MetricRating     LeaderboardMetric = "rating"
	MetricPopularity LeaderboardMetric = "popularity"
	MetricPrice      LeaderboardMetric = "price"
)

// popularRating is the review score above which a review counts towards popularity.
const popularRating = 4

// SearchResult holds stalls and dishes matching a query.
type SearchResult struct {
	Stalls []model.Stall         `json:"stalls"`
	Dishes []model.DishWithStall `json:"dishes"`
}

// LeaderboardEntry is one ranked row; Value is the sort metric.
type LeaderboardEntry struct {
	Rank  int                  `json:"rank"`
	Value float64              `json:"value"`
	Stall *model.Stall         `json:"stall,omitempty"`
	Dish  *model.DishWithStall `json:"dish,omitempty"`
}

// CatalogService answers read-only catalog queries.
type CatalogService interface {
	Stalls() []model.Stall
	StallDetail(id string) (*model.Stall, error)
	DishDetail(id string) (*model.DishWithStall, error)
	Search(query string) SearchResult
	Cuisines() []string
	StallsByCuisine(cuisine string) []model.Stall
	Leaderboard(kind LeaderboardKind, metric LeaderboardMetric) ([]LeaderboardEntry, error)
}

type catalogService struct {
	catalog repository.CatalogRepository
}

func NewCatalogService(catalog repository.CatalogRepository) CatalogService {
	return &catalogService{catalog: catalog}
}

func (s *catalogService) Stalls() []model.Stall {
	return s.catalog.Stalls()
}

func (s *catalogService) StallDetail(id string) (*model.Stall, error) {
	stall, err := s.catalog.FindStall(id)
	if err != nil {
		return nil, ErrStallNotFound
	}
	return stall, nil
}

func (s *catalogService) DishDetail(id string) (*model.DishWithStall, error) {
	dish, err := s.catalog.FindDish(id)
	if err != nil {
		return nil, ErrDishNotFound
	}
	return dish, nil
}

func (s *catalogService) Search(query string) SearchResult {
	result := SearchResult{Stalls: []model.Stall{}, Dishes: []model.DishWithStall{}}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return result
	}
	match := func(fields ...string) bool {
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), q) {
				return true
			}
		}
		return false
	}

	for _, stall := range s.catalog.Stalls() {
		if match(append([]string{stall.Name, stall.CuisineType}, stall.Tags...)...) {
			result.Stalls = append(result.Stalls, stall)
		}
		for _, dish := range stall.Menu {
			if match(dish.Name, dish.Category, dish.Description) {
				result.Dishes = append(result.Dishes, model.DishWithStall{Dish: dish, StallID: stall.ID, StallName: stall.Name})
			}
		}
	}
	return result
}

func (s *catalogService) Cuisines() []string {
	seen := make(map[string]bool)
	cuisines := []string{}
	for _, stall := range s.catalog.Stalls() {
		if stall.CuisineType != "" && !seen[stall.CuisineType] {
			seen[stall.CuisineType] = true
			cuisines = append(cuisines, stall.CuisineType)
		}
	}
	return cuisines
}

func (s *catalogService) StallsByCuisine(cuisine string) []model.Stall {
	stalls := []model.Stall{}
	for _, stall := range s.catalog.Stalls() {
		if stall.CuisineType == cuisine {
			stalls = append(stalls, stall)
		}
	}
	return stalls
}

func (s *catalogService) Leaderboard(kind LeaderboardKind, metric LeaderboardMetric) ([]LeaderboardEntry, error) {
	if metric != MetricRating && metric != MetricPopularity && metric != MetricPrice {
		return nil, ErrUnknownLeaderboard
	}

	var entries []LeaderboardEntry
	switch kind {
	case LeaderboardStalls:
		for _, stall := range s.catalog.Stalls() {
			stall := stall
			value := stall.Rating
			switch metric {
			case MetricPopularity:
				value = float64(popularity(stall.Reviews))
			case MetricPrice:
				value = stall.AverageMenuPrice()
			}
			entries = append(entries, LeaderboardEntry{Value: value, Stall: &stall})
		}
	case LeaderboardDishes:
		for _, stall := range s.catalog.Stalls() {
			for _, dish := range stall.Menu {
				item := &model.DishWithStall{Dish: dish, StallID: stall.ID, StallName: stall.Name}
				value := dish.Rating
				switch metric {
				case MetricPopularity:
					value = float64(popularity(dish.Reviews))
				case MetricPrice:
					value = dish.Price
				}
				entries = append(entries, LeaderboardEntry{Value: value, Dish: item})
			}
		}
	default:
		return nil, ErrUnknownLeaderboard
	}

	// price ranks cheapest first, everything else highest first
	sort.SliceStable(entries, func(i, j int) bool {
		if metric == MetricPrice {
			return entries[i].Value < entries[j].Value
		}
		return entries[i].Value > entries[j].Value
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	if entries == nil {
		entries = []LeaderboardEntry{}
	}
	return entries, nil
}

func popularity(reviews []model.Review) int {
	n := 0
	for _, r := range reviews {
		if r.OverallRating > popularRating {
			n++
		}
	}
	return n
}
