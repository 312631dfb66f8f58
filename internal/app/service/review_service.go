package service

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/ikkim/must-canteen/internal/app/model"
	"github.com/ikkim/must-canteen/internal/app/repository"
	"github.com/ikkim/must-canteen/pkg/logger"
)

const (
	// FeaturedLimit caps the featured bucket.
	FeaturedLimit = 3
	// GodCommentThreshold is the like count a review must exceed to be surfaced.
	GodCommentThreshold = 5
)

// RankedReviews splits a review collection into the featured and chronological buckets.
type RankedReviews struct {
	Featured      []model.Review `json:"featured"`
	Chronological []model.Review `json:"chronological"`
}

// RankReviews picks up to three most-liked reviews with at least one like; ties keep
// collection order. The rest are sorted newest first.
func RankReviews(reviews []model.Review) RankedReviews {
	order := make([]int, len(reviews))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return reviews[order[a]].LikeCount > reviews[order[b]].LikeCount
	})

	featured := []model.Review{}
	picked := make(map[int]bool)
	for _, idx := range order {
		if len(featured) == FeaturedLimit || reviews[idx].LikeCount <= 0 {
			break
		}
		featured = append(featured, reviews[idx].Clone())
		picked[idx] = true
	}

	rest := []model.Review{}
	for i, r := range reviews {
		if !picked[i] {
			rest = append(rest, r.Clone())
		}
	}
	sort.SliceStable(rest, func(i, j int) bool {
		return rest[i].SubmittedAt.After(rest[j].SubmittedAt.Time)
	})
	return RankedReviews{Featured: featured, Chronological: rest}
}

// FormatCount shows counts below 100 exactly and larger ones as "<hundreds>+".
func FormatCount(n int) string {
	if n < 100 {
		return strconv.Itoa(n)
	}
	return strconv.Itoa(n/100*100) + "+"
}

// GodComment returns the most-liked review (earliest on ties) when it has more than
// GodCommentThreshold likes.
func GodComment(reviews []model.Review) *model.Review {
	var best *model.Review
	for i := range reviews {
		if best == nil || reviews[i].LikeCount > best.LikeCount {
			best = &reviews[i]
		}
	}
	if best == nil || best.LikeCount <= GodCommentThreshold {
		return nil
	}
	out := best.Clone()
	return &out
}

// ReviewView is a target's reviews as this session sees them.
type ReviewView struct {
	Target        model.ReviewTarget `json:"target"`
	Featured      []model.Review     `json:"featured"`
	Chronological []model.Review     `json:"chronological"`
	Total         int                `json:"total"`
	DisplayCount  string             `json:"display_count"`
	GodComment    *model.Review      `json:"god_comment,omitempty"`
	Liked         []string           `json:"liked"`
}

// ReviewService ranks reviews and applies this session's optimistic likes.
type ReviewService interface {
	View(targetID string) (*ReviewView, error)
	Submit(targetID string, dimensions model.Dimensions, comment string, images []string) (*model.Review, error)
	// Like reports whether a new like was recorded.
	Like(targetID, reviewID string) (bool, error)
	HasLiked(reviewID string) bool
	// ResetLikes forgets the likes of the previous identity.
	ResetLikes()
	IsSubmitting() bool
	MyReviews() ([]model.UserReview, error)
	Delete(reviewID string) (bool, error)
	Append(reviewID, text string) (bool, error)
}

type reviewService struct {
	mu         sync.Mutex
	liked      map[string]bool
	submitting bool

	identity IdentityProvider
	gate     *AuthGate
	catalog  repository.CatalogRepository
	gateway  GatewayService
	notifier Notifier
}

func NewReviewService(
	identity IdentityProvider,
	gate *AuthGate,
	catalog repository.CatalogRepository,
	gateway GatewayService,
	notifier Notifier,
) ReviewService {
	return &reviewService{
		liked:    make(map[string]bool),
		identity: identity,
		gate:     gate,
		catalog:  catalog,
		gateway:  gateway,
		notifier: notifier,
	}
}

// overlay applies this session's likes to catalog copies. Caller holds s.mu.
func (s *reviewService) overlay(reviews []model.Review) {
	for i := range reviews {
		if s.liked[reviews[i].ID] {
			reviews[i].LikeCount++
		}
	}
}

func (s *reviewService) View(targetID string) (*ReviewView, error) {
	target, err := s.catalog.ResolveTarget(targetID)
	if err != nil {
		return nil, ErrTargetNotFound
	}
	reviews, err := s.catalog.Reviews(targetID)
	if err != nil {
		return nil, ErrTargetNotFound
	}

	s.mu.Lock()
	s.overlay(reviews)
	liked := []string{}
	for _, r := range reviews {
		if s.liked[r.ID] {
			liked = append(liked, r.ID)
		}
	}
	s.mu.Unlock()

	ranked := RankReviews(reviews)
	return &ReviewView{
		Target:        *target,
		Featured:      ranked.Featured,
		Chronological: ranked.Chronological,
		Total:         len(reviews),
		DisplayCount:  FormatCount(len(reviews)),
		GodComment:    GodComment(reviews),
		Liked:         liked,
	}, nil
}

func (s *reviewService) Submit(targetID string, dimensions model.Dimensions, comment string, images []string) (*model.Review, error) {
	if err := s.gate.guard(""); err != nil {
		return nil, err
	}
	if !dimensions.Valid() {
		return nil, ErrInvalidRating
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, ErrEmptyComment
	}

	author := s.identity.Current()
	if author == nil {
		return nil, ErrNotLoggedIn
	}

	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return nil, ErrReviewSubmitInProgress
	}
	s.submitting = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
	}()

	draft := model.ReviewDraft{
		AuthorID:   author.ID,
		AuthorName: author.DisplayName,
		Dimensions: dimensions,
		Comment:    comment,
		Images:     images,
	}

	review, err := s.gateway.SubmitReview(targetID, draft)
	if err != nil {
		logger.Warn("Review submission failed", map[string]interface{}{
			"target_id": targetID,
			"error":     err.Error(),
		})
		notifyError(s.notifier, "发布评价失败。")
		return nil, err
	}

	notifySuccess(s.notifier, "评价发布成功！")
	return review, nil
}

func (s *reviewService) Like(targetID, reviewID string) (bool, error) {
	if err := s.gate.guard(""); err != nil {
		return false, err
	}

	reviews, err := s.catalog.Reviews(targetID)
	if err != nil {
		return false, nil
	}
	exists := false
	for _, r := range reviews {
		if r.ID == reviewID {
			exists = true
			break
		}
	}
	if !exists {
		return false, nil
	}

	s.mu.Lock()
	if s.liked[reviewID] {
		s.mu.Unlock()
		return false, nil
	}
	s.liked[reviewID] = true
	s.mu.Unlock()

	ok, err := s.gateway.LikeReview(reviewID)
	if err != nil || !ok {
		s.mu.Lock()
		delete(s.liked, reviewID)
		s.mu.Unlock()

		logger.Warn("Like rolled back", map[string]interface{}{
			"review_id": reviewID,
			"acked":     ok,
		})
		if err != nil {
			notifyError(s.notifier, "点赞失败，请重试")
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func (s *reviewService) HasLiked(reviewID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liked[reviewID]
}

func (s *reviewService) ResetLikes() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.liked = make(map[string]bool)
}

func (s *reviewService) IsSubmitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

func (s *reviewService) MyReviews() ([]model.UserReview, error) {
	if err := s.gate.guard(""); err != nil {
		return nil, err
	}
	author := s.identity.Current()
	if author == nil {
		return nil, ErrNotLoggedIn
	}

	reviews, err := s.gateway.GetUserReviews(author.ID)
	if err != nil {
		notifyError(s.notifier, "加载评价失败")
		return nil, err
	}

	s.mu.Lock()
	for i := range reviews {
		if s.liked[reviews[i].Review.ID] {
			reviews[i].Review.LikeCount++
		}
	}
	s.mu.Unlock()
	return reviews, nil
}

// ownReview checks that reviewID exists and belongs to the active identity.
// A missing review reports false with no error.
func (s *reviewService) ownReview(reviewID string) (bool, error) {
	review, _, err := s.catalog.FindReview(reviewID)
	if errors.Is(err, repository.ErrReviewNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	author := s.identity.Current()
	if author == nil {
		return false, ErrNotLoggedIn
	}
	if review.AuthorID != author.ID {
		return false, ErrNotReviewOwner
	}
	return true, nil
}

func (s *reviewService) Delete(reviewID string) (bool, error) {
	if err := s.gate.guard(""); err != nil {
		return false, err
	}
	if ok, err := s.ownReview(reviewID); !ok || err != nil {
		return false, err
	}

	deleted, err := s.gateway.DeleteReview(reviewID)
	if err != nil {
		notifyError(s.notifier, "删除失败")
		return false, err
	}
	if deleted {
		s.mu.Lock()
		delete(s.liked, reviewID)
		s.mu.Unlock()
		notifySuccess(s.notifier, "删除成功")
	}
	return deleted, nil
}

func (s *reviewService) Append(reviewID, text string) (bool, error) {
	if err := s.gate.guard(""); err != nil {
		return false, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return false, ErrEmptyAppend
	}
	if ok, err := s.ownReview(reviewID); !ok || err != nil {
		return false, err
	}

	appended, err := s.gateway.AppendReview(reviewID, text)
	if err != nil {
		notifyError(s.notifier, "追评失败")
		return false, err
	}
	if appended {
		notifySuccess(s.notifier, "追评成功")
	}
	return appended, nil
}
