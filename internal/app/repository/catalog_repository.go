package repository

import (
	"errors"
	"sync"

	"github.com/ikkim/must-canteen/internal/app/model"
	"github.com/ikkim/must-canteen/pkg/logger"
)

var (
	ErrTargetNotFound = errors.New("review target not found")
	ErrStallNotFound  = errors.New("stall not found")
	ErrDishNotFound   = errors.New("dish not found")
	ErrReviewNotFound = errors.New("review not found")
)

// CatalogRepository owns the shared stall/dish catalog and its embedded review collections.
// Reads return deep copies. Only the mutation gateway calls the write methods.
type CatalogRepository interface {
	Stalls() []model.Stall
	FindStall(id string) (*model.Stall, error)
	FindDish(id string) (*model.DishWithStall, error)
	ResolveTarget(id string) (*model.ReviewTarget, error)
	Reviews(targetID string) ([]model.Review, error)
	ReviewsByAuthor(authorID string) []model.UserReview
	// FindReview locates a review in delete/append search order.
	FindReview(reviewID string) (*model.Review, *model.ReviewTarget, error)

	PrependReview(targetID string, review model.Review) (*model.ReviewTarget, error)
	// RemoveReview deletes the first match and reports the target it was filed under.
	RemoveReview(reviewID string) (*model.ReviewTarget, bool)
	UpdateReview(reviewID string, fn func(*model.Review)) bool
}

type catalogRepository struct {
	mu     sync.RWMutex
	stalls []model.Stall
}

// NewCatalogRepository takes ownership of a deep copy of stalls.
func NewCatalogRepository(stalls []model.Stall) CatalogRepository {
	owned := make([]model.Stall, len(stalls))
	for i, s := range stalls {
		owned[i] = s.Clone()
	}
	return &catalogRepository{stalls: owned}
}

func (r *catalogRepository) Stalls() []model.Stall {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Stall, len(r.stalls))
	for i, s := range r.stalls {
		out[i] = s.Clone()
	}
	return out
}

func (r *catalogRepository) FindStall(id string) (*model.Stall, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.stalls {
		if s.ID == id {
			stall := s.Clone()
			return &stall, nil
		}
	}
	return nil, ErrStallNotFound
}

func (r *catalogRepository) FindDish(id string) (*model.DishWithStall, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.stalls {
		for _, d := range s.Menu {
			if d.ID == id {
				return &model.DishWithStall{Dish: d.Clone(), StallID: s.ID, StallName: s.Name}, nil
			}
		}
	}
	return nil, ErrDishNotFound
}

func (r *catalogRepository) ResolveTarget(id string) (*model.ReviewTarget, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reviews, target := r.locate(id)
	if reviews == nil {
		return nil, ErrTargetNotFound
	}
	return &target, nil
}

func (r *catalogRepository) Reviews(targetID string) ([]model.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reviews, _ := r.locate(targetID)
	if reviews == nil {
		return nil, ErrTargetNotFound
	}
	return model.CloneReviews(*reviews), nil
}

func (r *catalogRepository) ReviewsByAuthor(authorID string) []model.UserReview {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.UserReview
	r.scan(func(reviews *[]model.Review, target model.ReviewTarget) bool {
		for _, rev := range *reviews {
			if rev.AuthorID == authorID {
				out = append(out, model.UserReview{Review: rev.Clone(), TargetID: target.ID, TargetName: target.Name})
			}
		}
		return false
	})
	return out
}

func (r *catalogRepository) FindReview(reviewID string) (*model.Review, *model.ReviewTarget, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		found model.Review
		owner model.ReviewTarget
	)
	ok := r.scan(func(reviews *[]model.Review, target model.ReviewTarget) bool {
		for _, rev := range *reviews {
			if rev.ID == reviewID {
				found, owner = rev.Clone(), target
				return true
			}
		}
		return false
	})
	if !ok {
		return nil, nil, ErrReviewNotFound
	}
	return &found, &owner, nil
}

func (r *catalogRepository) PrependReview(targetID string, review model.Review) (*model.ReviewTarget, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reviews, target := r.locate(targetID)
	if reviews == nil {
		return nil, ErrTargetNotFound
	}
	*reviews = append([]model.Review{review.Clone()}, *reviews...)

	logger.Debug("Review stored in catalog", map[string]interface{}{
		"review_id":   review.ID,
		"target_id":   target.ID,
		"target_kind": target.Kind,
		"count":       len(*reviews),
	})
	return &target, nil
}

func (r *catalogRepository) RemoveReview(reviewID string) (*model.ReviewTarget, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var owner model.ReviewTarget
	ok := r.scan(func(reviews *[]model.Review, target model.ReviewTarget) bool {
		for i, rev := range *reviews {
			if rev.ID == reviewID {
				*reviews = append((*reviews)[:i], (*reviews)[i+1:]...)
				owner = target
				return true
			}
		}
		return false
	})
	if !ok {
		return nil, false
	}
	return &owner, true
}

func (r *catalogRepository) UpdateReview(reviewID string, fn func(*model.Review)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.scan(func(reviews *[]model.Review, _ model.ReviewTarget) bool {
		for i := range *reviews {
			if (*reviews)[i].ID == reviewID {
				fn(&(*reviews)[i])
				return true
			}
		}
		return false
	})
}

// locate resolves a stall id first, then a dish id. Callers hold the lock.
func (r *catalogRepository) locate(id string) (*[]model.Review, model.ReviewTarget) {
	for i := range r.stalls {
		s := &r.stalls[i]
		if s.ID == id {
			return &s.Reviews, model.ReviewTarget{Kind: model.TargetStall, ID: s.ID, Name: s.Name, StallID: s.ID}
		}
	}
	for i := range r.stalls {
		s := &r.stalls[i]
		for j := range s.Menu {
			d := &s.Menu[j]
			if d.ID == id {
				return &d.Reviews, model.ReviewTarget{Kind: model.TargetDish, ID: d.ID, Name: d.Name, StallID: s.ID}
			}
		}
	}
	return nil, model.ReviewTarget{}
}

// scan visits each stall's own reviews and then each of its dishes' reviews, in catalog
// order, until visit returns true. Callers hold the lock.
func (r *catalogRepository) scan(visit func(reviews *[]model.Review, target model.ReviewTarget) bool) bool {
	for i := range r.stalls {
		s := &r.stalls[i]
		if visit(&s.Reviews, model.ReviewTarget{Kind: model.TargetStall, ID: s.ID, Name: s.Name, StallID: s.ID}) {
			return true
		}
		for j := range s.Menu {
			d := &s.Menu[j]
			if visit(&d.Reviews, model.ReviewTarget{Kind: model.TargetDish, ID: d.ID, Name: d.Name, StallID: s.ID}) {
				return true
			}
		}
	}
	return false
}
