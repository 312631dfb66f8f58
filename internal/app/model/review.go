package model

import "math"

const (
	MinRating = 1
	MaxRating = 5
)

// Dimensions are the three per-review scores.
type Dimensions struct {
	Appearance int `json:"appearance"`
	Aroma      int `json:"aroma"`
	Taste      int `json:"taste"`
}

// Valid reports whether every dimension is within 1..5.
func (d Dimensions) Valid() bool {
	for _, v := range []int{d.Appearance, d.Aroma, d.Taste} {
		if v < MinRating || v > MaxRating {
			return false
		}
	}
	return true
}

// Overall is the rounded mean of the three dimensions (halves round up).
func (d Dimensions) Overall() int {
	mean := float64(d.Appearance+d.Aroma+d.Taste) / 3
	return int(math.Round(mean))
}

// Review belongs to exactly one stall or dish.
type Review struct {
	ID            string     `json:"id"`
	AuthorID      string     `json:"author_id"`
	AuthorName    string     `json:"author_name"`
	OverallRating int        `json:"overall_rating"`
	Dimensions    Dimensions `json:"dimensions"`
	Comment       string     `json:"comment"`
	SubmittedAt   Date       `json:"submitted_at"`
	Images        []string   `json:"images,omitempty"`
	LikeCount     int        `json:"like_count"`
}

// Clone copies the review including its image slice.
func (r Review) Clone() Review {
	if r.Images != nil {
		r.Images = append([]string(nil), r.Images...)
	}
	return r
}

// CloneReviews deep-copies a review collection.
func CloneReviews(reviews []Review) []Review {
	if reviews == nil {
		return nil
	}
	out := make([]Review, len(reviews))
	for i, r := range reviews {
		out[i] = r.Clone()
	}
	return out
}

// ReviewDraft is what a client submits; the gateway assigns id, date and likes.
type ReviewDraft struct {
	AuthorID   string     `json:"author_id"`
	AuthorName string     `json:"author_name"`
	Dimensions Dimensions `json:"dimensions"`
	Comment    string     `json:"comment"`
	Images     []string   `json:"images,omitempty"`
}

// UserReview pairs a review with the display name of its target.
type UserReview struct {
	Review     Review `json:"review"`
	TargetID   string `json:"target_id"`
	TargetName string `json:"target_name"`
}
