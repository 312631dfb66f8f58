package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/must-canteen/internal/app/model"
	"github.com/ikkim/must-canteen/internal/app/repository"
	"github.com/ikkim/must-canteen/pkg/logger"
	"github.com/ikkim/must-canteen/pkg/util"
)

// Operation names a gateway call for fault injection and logs.
type Operation string

const (
	OpSubmitOrder    Operation = "submit_order"
	OpSubmitReview   Operation = "submit_review"
	OpLikeReview     Operation = "like_review"
	OpGetUserReviews Operation = "get_user_reviews"
	OpDeleteReview   Operation = "delete_review"
	OpAppendReview   Operation = "append_review"
)

// FaultPolicy decides whether a call fails with ErrGatewayUnavailable.
type FaultPolicy interface {
	ShouldFail(op Operation) bool
}

// FaultFunc adapts a function to FaultPolicy.
type FaultFunc func(op Operation) bool

func (f FaultFunc) ShouldFail(op Operation) bool { return f(op) }

// NeverFail is the default policy.
var NeverFail FaultPolicy = FaultFunc(func(Operation) bool { return false })

// ReviewEventPublisher receives committed review mutations.
type ReviewEventPublisher interface {
	PublishReviewEvent(ctx context.Context, event model.ReviewEvent) error
}

// Latency is an inclusive random range.
type Latency struct {
	Min time.Duration
	Max time.Duration
}

// GatewayOptions configures the simulated backend. Zero latencies mean no delay.
type GatewayOptions struct {
	Order      Latency
	Review     Latency
	Like       Latency
	UserQuery  Latency
	Faults     FaultPolicy
	Events     ReviewEventPublisher
	Sleep      func(time.Duration)
	Now        func() time.Time
	PublishTTL time.Duration
}

// GatewayService simulates the remote store. It is the only writer of the catalog.
type GatewayService interface {
	SubmitOrder(lines []model.CartLine, total float64) (*model.OrderReceipt, error)
	SubmitReview(targetID string, draft model.ReviewDraft) (*model.Review, error)
	// LikeReview only acknowledges; it reports false when the review does not exist.
	LikeReview(reviewID string) (bool, error)
	GetUserReviews(userID string) ([]model.UserReview, error)
	DeleteReview(reviewID string) (bool, error)
	AppendReview(reviewID, text string) (bool, error)
}

type gatewayService struct {
	catalog repository.CatalogRepository
	opts    GatewayOptions
}

func NewGatewayService(catalog repository.CatalogRepository, opts GatewayOptions) GatewayService {
	if opts.Faults == nil {
		opts.Faults = NeverFail
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.PublishTTL <= 0 {
		opts.PublishTTL = 2 * time.Second
	}
	return &gatewayService{catalog: catalog, opts: opts}
}

// call waits out the simulated latency and applies the fault policy.
func (g *gatewayService) call(op Operation, latency Latency) error {
	if d := util.RandomDuration(latency.Min, latency.Max); d > 0 {
		g.opts.Sleep(d)
	}
	if g.opts.Faults.ShouldFail(op) {
		logger.Warn("Gateway call failed", map[string]interface{}{
			"operation": string(op),
		})
		return fmt.Errorf("%s: %w", op, ErrGatewayUnavailable)
	}
	return nil
}

func (g *gatewayService) publish(event model.ReviewEvent) {
	if g.opts.Events == nil {
		return
	}
	event.OccurredAt = g.opts.Now()
	ctx, cancel := context.WithTimeout(context.Background(), g.opts.PublishTTL)
	defer cancel()
	if err := g.opts.Events.PublishReviewEvent(ctx, event); err != nil {
		logger.Error("Failed to publish review event", err, map[string]interface{}{
			"type":      string(event.Type),
			"review_id": event.ReviewID,
		})
	}
}

func (g *gatewayService) SubmitOrder(lines []model.CartLine, total float64) (*model.OrderReceipt, error) {
	if err := g.call(OpSubmitOrder, g.opts.Order); err != nil {
		return nil, err
	}

	now := g.opts.Now()
	order := model.Order{
		ID:       orderID(now),
		Lines:    append([]model.CartLine(nil), lines...),
		Total:    total,
		PlacedAt: now,
	}
	stallID := ""
	if len(order.Lines) > 0 {
		stallID = order.Lines[0].StallID
	}
	logger.Info("Order placed", map[string]interface{}{
		"order_id": order.ID,
		"stall_id": stallID,
		"lines":    len(order.Lines),
		"total":    order.Total,
	})
	return &model.OrderReceipt{OrderID: order.ID}, nil
}

// orderID is "ORD-" plus the last six digits of the millisecond timestamp.
func orderID(now time.Time) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return "ORD-" + ms
}

func (g *gatewayService) SubmitReview(targetID string, draft model.ReviewDraft) (*model.Review, error) {
	if err := g.call(OpSubmitReview, g.opts.Review); err != nil {
		return nil, err
	}

	review := model.Review{
		ID:            "r-" + uuid.NewString(),
		AuthorID:      draft.AuthorID,
		AuthorName:    draft.AuthorName,
		OverallRating: draft.Dimensions.Overall(),
		Dimensions:    draft.Dimensions,
		Comment:       draft.Comment,
		SubmittedAt:   model.NewDate(g.opts.Now()),
		Images:        append([]string(nil), draft.Images...),
		LikeCount:     0,
	}

	target, err := g.catalog.PrependReview(targetID, review)
	if err != nil {
		if errors.Is(err, repository.ErrTargetNotFound) {
			logger.Warn("Review target not found", map[string]interface{}{
				"target_id": targetID,
			})
			return nil, ErrTargetNotFound
		}
		return nil, err
	}

	logger.Info("Review submitted", map[string]interface{}{
		"review_id":   review.ID,
		"target_id":   target.ID,
		"target_kind": string(target.Kind),
		"rating":      review.OverallRating,
	})
	g.publish(model.ReviewEvent{
		Type:       model.ReviewSubmitted,
		ReviewID:   review.ID,
		TargetID:   target.ID,
		TargetKind: target.Kind,
		AuthorID:   review.AuthorID,
		Rating:     review.OverallRating,
	})
	stored := review.Clone()
	return &stored, nil
}

func (g *gatewayService) LikeReview(reviewID string) (bool, error) {
	if err := g.call(OpLikeReview, g.opts.Like); err != nil {
		return false, err
	}
	_, target, err := g.catalog.FindReview(reviewID)
	if err != nil {
		return false, nil
	}
	g.publish(model.ReviewEvent{
		Type:       model.ReviewLiked,
		ReviewID:   reviewID,
		TargetID:   target.ID,
		TargetKind: target.Kind,
	})
	return true, nil
}

func (g *gatewayService) GetUserReviews(userID string) ([]model.UserReview, error) {
	if err := g.call(OpGetUserReviews, g.opts.UserQuery); err != nil {
		return nil, err
	}
	reviews := g.catalog.ReviewsByAuthor(userID)
	sort.SliceStable(reviews, func(i, j int) bool {
		return reviews[i].Review.SubmittedAt.After(reviews[j].Review.SubmittedAt.Time)
	})
	if reviews == nil {
		reviews = []model.UserReview{}
	}
	return reviews, nil
}

func (g *gatewayService) DeleteReview(reviewID string) (bool, error) {
	if err := g.call(OpDeleteReview, Latency{}); err != nil {
		return false, err
	}
	target, ok := g.catalog.RemoveReview(reviewID)
	if !ok {
		return false, nil
	}

	logger.Info("Review deleted", map[string]interface{}{
		"review_id": reviewID,
		"target_id": target.ID,
	})
	g.publish(model.ReviewEvent{
		Type:       model.ReviewDeleted,
		ReviewID:   reviewID,
		TargetID:   target.ID,
		TargetKind: target.Kind,
	})
	return true, nil
}

func (g *gatewayService) AppendReview(reviewID, text string) (bool, error) {
	if err := g.call(OpAppendReview, Latency{}); err != nil {
		return false, err
	}
	suffix := fmt.Sprintf("\n[追评 %s]: %s", model.NewDate(g.opts.Now()).String(), text)
	if !g.catalog.UpdateReview(reviewID, func(r *model.Review) { r.Comment += suffix }) {
		return false, nil
	}

	logger.Info("Review appended", map[string]interface{}{
		"review_id": reviewID,
	})
	g.publish(model.ReviewEvent{Type: model.ReviewAppended, ReviewID: reviewID})
	return true, nil
}
