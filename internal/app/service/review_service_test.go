package service

import (
	"sync"
	"testing"
	"time"

	"github.com/ikkim/must-canteen/internal/app/model"
	apperrors "github.com/ikkim/must-canteen/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reviewIDs(reviews []model.Review) []string {
	ids := make([]string, len(reviews))
	for i, r := range reviews {
		ids[i] = r.ID
	}
	return ids
}

func TestRankReviews(t *testing.T) {
	t.Run("Top three liked", func(t *testing.T) {
		reviews := []model.Review{
			{ID: "a", LikeCount: 5, SubmittedAt: date(t, "2024-01-01")},
			{ID: "b", LikeCount: 3, SubmittedAt: date(t, "2024-01-02")},
			{ID: "c", LikeCount: 0, SubmittedAt: date(t, "2024-01-03")},
			{ID: "d", LikeCount: 7, SubmittedAt: date(t, "2024-01-04")},
			{ID: "e", LikeCount: 2, SubmittedAt: date(t, "2024-01-05")},
		}
		ranked := RankReviews(reviews)
		assert.Equal(t, []string{"d", "a", "b"}, reviewIDs(ranked.Featured))
		assert.Equal(t, []string{"e", "c"}, reviewIDs(ranked.Chronological))
	})

	t.Run("Unliked reviews are never featured", func(t *testing.T) {
		reviews := []model.Review{
			{ID: "a", SubmittedAt: date(t, "2024-01-01")},
			{ID: "b", LikeCount: 1, SubmittedAt: date(t, "2024-01-02")},
			{ID: "c", SubmittedAt: date(t, "2024-01-03")},
		}
		ranked := RankReviews(reviews)
		assert.Equal(t, []string{"b"}, reviewIDs(ranked.Featured))
		assert.Equal(t, []string{"c", "a"}, reviewIDs(ranked.Chronological))
	})

	t.Run("Ties keep collection order", func(t *testing.T) {
		reviews := []model.Review{
			{ID: "a", LikeCount: 4, SubmittedAt: date(t, "2024-01-01")},
			{ID: "b", LikeCount: 4, SubmittedAt: date(t, "2024-01-02")},
			{ID: "c", LikeCount: 4, SubmittedAt: date(t, "2024-01-03")},
			{ID: "d", LikeCount: 4, SubmittedAt: date(t, "2024-01-04")},
		}
		ranked := RankReviews(reviews)
		assert.Equal(t, []string{"a", "b", "c"}, reviewIDs(ranked.Featured))
		assert.Equal(t, []string{"d"}, reviewIDs(ranked.Chronological))
	})

	t.Run("Empty", func(t *testing.T) {
		ranked := RankReviews(nil)
		assert.Empty(t, ranked.Featured)
		assert.Empty(t, ranked.Chronological)
		assert.NotNil(t, ranked.Featured)
	})

	t.Run("Input is not modified", func(t *testing.T) {
		reviews := []model.Review{
			{ID: "a", SubmittedAt: date(t, "2024-01-01")},
			{ID: "b", SubmittedAt: date(t, "2024-01-02")},
		}
		RankReviews(reviews)
		assert.Equal(t, []string{"a", "b"}, reviewIDs(reviews))
	})
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0"},
		{42, "42"},
		{99, "99"},
		{100, "100+"},
		{199, "100+"},
		{250, "200+"},
		{1000, "1000+"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCount(tt.n), "n=%d", tt.n)
	}
}

func TestGodComment(t *testing.T) {
	assert.Nil(t, GodComment(nil))
	assert.Nil(t, GodComment([]model.Review{{ID: "a", LikeCount: 5}}))

	got := GodComment([]model.Review{
		{ID: "a", LikeCount: 2},
		{ID: "b", LikeCount: 6},
		{ID: "c", LikeCount: 6},
	})
	require.NotNil(t, got)
	assert.Equal(t, "b", got.ID)
}

func TestReviewService_View(t *testing.T) {
	env := newTestEnv(t, GatewayOptions{})
	s := env.session("device-1")

	view, err := s.Reviews.View("S1")
	require.NoError(t, err)
	assert.Equal(t, model.TargetStall, view.Target.Kind)
	assert.Equal(t, 2, view.Total)
	assert.Equal(t, "2", view.DisplayCount)
	assert.Equal(t, []string{"r-s1-a"}, reviewIDs(view.Featured))
	assert.Equal(t, []string{"r-s1-b"}, reviewIDs(view.Chronological))
	assert.Nil(t, view.GodComment)
	assert.Empty(t, view.Liked)

	view, err = s.Reviews.View("D2")
	require.NoError(t, err)
	assert.Equal(t, model.TargetDish, view.Target.Kind)
	assert.Equal(t, "S1", view.Target.StallID)
	require.NotNil(t, view.GodComment)
	assert.Equal(t, "r-d2-a", view.GodComment.ID)

	_, err = s.Reviews.View("nope")
	assert.ErrorIs(t, err, ErrTargetNotFound)
}

func TestReviewService_LikeOnce(t *testing.T) {
	env := newTestEnv(t, GatewayOptions{})
	s := env.loggedIn(t, "device-1", "alice@student.must.edu.mo")

	liked, err := s.Reviews.Like("S1", "r-s1-b")
	require.NoError(t, err)
	assert.True(t, liked)
	assert.True(t, s.Reviews.HasLiked("r-s1-b"))

	liked, err = s.Reviews.Like("S1", "r-s1-b")
	require.NoError(t, err)
	assert.False(t, liked)

	view, err := s.Reviews.View("S1")
	require.NoError(t, err)
	assert.Equal(t, []string{"r-s1-b"}, view.Liked)
	// both reviews now have likes and are featured
	require.Len(t, view.Featured, 2)
	assert.Equal(t, "r-s1-a", view.Featured[0].ID)
	assert.Equal(t, 1, view.Featured[1].LikeCount)

	// another device does not see this session's like
	other := env.session("device-2")
	otherView, err := other.Reviews.View("S1")
	require.NoError(t, err)
	assert.Empty(t, otherView.Liked)
	assert.Equal(t, []string{"r-s1-a"}, reviewIDs(otherView.Featured))
}

func TestReviewService_LikeUnknownReview(t *testing.T) {
	env := newTestEnv(t, GatewayOptions{})
	s := env.loggedIn(t, "device-1", "alice@student.must.edu.mo")

	liked, err := s.Reviews.Like("S1", "r-d2-a")
	assert.NoError(t, err)
	assert.False(t, liked)

	liked, err = s.Reviews.Like("nope", "r-s1-a")
	assert.NoError(t, err)
	assert.False(t, liked)
	assert.False(t, s.Reviews.HasLiked("r-s1-a"))
}

func TestReviewService_LikeRollsBackOnFailure(t *testing.T) {
	env := newTestEnv(t, GatewayOptions{
		Faults: FaultFunc(func(op Operation) bool { return op == OpLikeReview }),
	})
	s := env.loggedIn(t, "device-1", "alice@student.must.edu.mo")

	liked, err := s.Reviews.Like("S1", "r-s1-a")
	assert.False(t, liked)
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
	assert.False(t, s.Reviews.HasLiked("r-s1-a"))

	view, err := s.Reviews.View("S1")
	require.NoError(t, err)
	assert.Equal(t, 2, view.Featured[0].LikeCount)

	notices := s.DrainNotices()
	require.Len(t, notices, 1)
	assert.Equal(t, model.SeverityError, notices[0].Severity)
}

func TestReviewService_GuestCannotWrite(t *testing.T) {
	env := newTestEnv(t, GatewayOptions{})
	s := env.session("device-1")
	_, err := s.GuestLogin()
	require.NoError(t, err)

	_, err = s.Reviews.Like("S1", "r-s1-a")
	assert.ErrorIs(t, err, ErrGuestWriteBlocked)

	_, err = s.Reviews.Submit("S1", model.Dimensions{Appearance: 5, Aroma: 5, Taste: 5}, "nice", nil)
	assert.ErrorIs(t, err, ErrGuestWriteBlocked)

	_, err = s.Reviews.MyReviews()
	assert.ErrorIs(t, err, ErrGuestWriteBlocked)

	reviews, err := env.catalog.Reviews("S1")
	require.NoError(t, err)
	assert.Len(t, reviews, 2)

	// reading stays open
	_, err = s.Reviews.View("S1")
	assert.NoError(t, err)
}

func TestReviewService_SubmitValidation(t *testing.T) {
	var calls int
	var mu sync.Mutex
	env := newTestEnv(t, GatewayOptions{
		Faults: FaultFunc(func(op Operation) bool {
			mu.Lock()
			defer mu.Unlock()
			if op == OpSubmitReview {
				calls++
			}
			return false
		}),
	})
	s := env.loggedIn(t, "device-1", "alice@student.must.edu.mo")

	tests := []struct {
		name    string
		dims    model.Dimensions
		comment string
		wantErr error
	}{
		{"Missing dimension", model.Dimensions{Appearance: 5, Aroma: 0, Taste: 4}, "tasty", ErrInvalidRating},
		{"Out of range", model.Dimensions{Appearance: 6, Aroma: 4, Taste: 4}, "tasty", ErrInvalidRating},
		{"Blank comment", model.Dimensions{Appearance: 4, Aroma: 4, Taste: 4}, "   ", ErrEmptyComment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			review, err := s.Reviews.Submit("D1", tt.dims, tt.comment, nil)
			assert.Nil(t, review)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		})
	}

	mu.Lock()
	assert.Zero(t, calls)
	mu.Unlock()
	reviews, err := env.catalog.Reviews("D1")
	require.NoError(t, err)
	assert.Empty(t, reviews)
}

func TestReviewService_SubmitPrepends(t *testing.T) {
	env := newTestEnv(t, GatewayOptions{
		Now: func() time.Time { return time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC) },
	})
	s := env.loggedIn(t, "device-1", "alice@student.must.edu.mo")

	review, err := s.Reviews.Submit("S1", model.Dimensions{Appearance: 5, Aroma: 5, Taste: 4}, "  very good  ", []string{"img-1"})
	require.NoError(t, err)
	assert.Equal(t, 5, review.OverallRating)
	assert.Equal(t, "very good", review.Comment)
	assert.Equal(t, "alice", review.AuthorName)
	assert.Equal(t, "2024-05-02", review.SubmittedAt.String())
	assert.Zero(t, review.LikeCount)

	reviews, err := env.catalog.Reviews("S1")
	require.NoError(t, err)
	require.Len(t, reviews, 3)
	assert.Equal(t, review.ID, reviews[0].ID)

	review, err = s.Reviews.Submit("D1", model.Dimensions{Appearance: 4, Aroma: 4, Taste: 5}, "fine", nil)
	require.NoError(t, err)
	assert.Equal(t, 4, review.OverallRating)

	notices := s.DrainNotices()
	require.Len(t, notices, 2)
	assert.Equal(t, "评价发布成功！", notices[0].Message)
}

func TestReviewService_SubmitUnknownTarget(t *testing.T) {
	env := newTestEnv(t, GatewayOptions{})
	s := env.loggedIn(t, "device-1", "alice@student.must.edu.mo")

	_, err := s.Reviews.Submit("nope", model.Dimensions{Appearance: 4, Aroma: 4, Taste: 4}, "fine", nil)
	assert.ErrorIs(t, err, ErrTargetNotFound)

	notices := s.DrainNotices()
	require.Len(t, notices, 1)
	assert.Equal(t, model.SeverityError, notices[0].Severity)
}

// steppingClock returns consecutive days starting at start.
func steppingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := next
		next = next.AddDate(0, 0, 1)
		return now
	}
}

func TestReviewService_MyReviews(t *testing.T) {
	env := newTestEnv(t, GatewayOptions{
		Now: steppingClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)),
	})
	s := env.loggedIn(t, "device-1", "alice@student.must.edu.mo")
	dims := model.Dimensions{Appearance: 4, Aroma: 4, Taste: 4}

	first, err := s.Reviews.Submit("D1", dims, "first", nil)
	require.NoError(t, err)
	second, err := s.Reviews.Submit("S2", dims, "second", nil)
	require.NoError(t, err)

	mine, err := s.Reviews.MyReviews()
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].Review.ID)
	assert.Equal(t, "S2", mine[0].TargetID)
	assert.Equal(t, "Rice House", mine[0].TargetName)
	assert.Equal(t, first.ID, mine[1].Review.ID)
	assert.Equal(t, "Beef Noodles", mine[1].TargetName)

	other := env.loggedIn(t, "device-2", "bob@must.edu.mo")
	theirs, err := other.Reviews.MyReviews()
	require.NoError(t, err)
	assert.Empty(t, theirs)
	assert.NotNil(t, theirs)
}

func TestReviewService_DeleteAndAppend(t *testing.T) {
	env := newTestEnv(t, GatewayOptions{
		Now: func() time.Time { return time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC) },
	})
	s := env.loggedIn(t, "device-1", "alice@student.must.edu.mo")
	dims := model.Dimensions{Appearance: 4, Aroma: 4, Taste: 4}

	review, err := s.Reviews.Submit("D2", dims, "good", nil)
	require.NoError(t, err)

	t.Run("Append to own review", func(t *testing.T) {
		ok, err := s.Reviews.Append(review.ID, " still good ")
		require.NoError(t, err)
		assert.True(t, ok)

		stored, _, err := env.catalog.FindReview(review.ID)
		require.NoError(t, err)
		assert.Equal(t, "good\n[追评 2024-05-02]: still good", stored.Comment)
	})

	t.Run("Blank append", func(t *testing.T) {
		_, err := s.Reviews.Append(review.ID, "  ")
		assert.ErrorIs(t, err, ErrEmptyAppend)
	})

	t.Run("Foreign review", func(t *testing.T) {
		ok, err := s.Reviews.Delete("r-d2-a")
		assert.False(t, ok)
		assert.ErrorIs(t, err, ErrNotReviewOwner)

		ok, err = s.Reviews.Append("r-s1-a", "mine now")
		assert.False(t, ok)
		assert.ErrorIs(t, err, ErrNotReviewOwner)

		_, _, err = env.catalog.FindReview("r-d2-a")
		assert.NoError(t, err)
	})

	t.Run("Missing review", func(t *testing.T) {
		ok, err := s.Reviews.Delete("r-missing")
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Delete own review", func(t *testing.T) {
		ok, err := s.Reviews.Delete(review.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		reviews, err := env.catalog.Reviews("D2")
		require.NoError(t, err)
		assert.Equal(t, []string{"r-d2-a"}, reviewIDs(reviews))

		ok, err = s.Reviews.Delete(review.ID)
		assert.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestReviewService_SingleInFlightSubmit(t *testing.T) {
	pause := newPausingSleep()
	env := newTestEnv(t, GatewayOptions{
		Review: Latency{Min: 1, Max: 1},
		Sleep:  pause.Sleep,
	})
	s := env.loggedIn(t, "device-1", "alice@student.must.edu.mo")
	dims := model.Dimensions{Appearance: 4, Aroma: 4, Taste: 4}

	type result struct {
		review *model.Review
		err    error
	}
	done := make(chan result, 1)
	go func() {
		review, err := s.Reviews.Submit("S1", dims, "first", nil)
		done <- result{review, err}
	}()
	<-pause.entered

	assert.True(t, s.Reviews.IsSubmitting())
	assert.True(t, s.Busy())
	_, err := s.Reviews.Submit("S1", dims, "second", nil)
	assert.ErrorIs(t, err, ErrReviewSubmitInProgress)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	close(pause.release)
	res := <-done
	require.NoError(t, res.err)
	require.NotNil(t, res.review)
	assert.False(t, s.Reviews.IsSubmitting())
	assert.False(t, s.Busy())

	reviews, err := env.catalog.Reviews("S1")
	require.NoError(t, err)
	require.Len(t, reviews, 3)
	assert.Equal(t, "first", reviews[0].Comment)

	// the flag is released, so a later submission goes through
	_, err = s.Reviews.Submit("S1", dims, "third", nil)
	require.NoError(t, err)
}

func TestReviewService_ValidationDoesNotHoldSubmitFlag(t *testing.T) {
	env := newTestEnv(t, GatewayOptions{})
	s := env.loggedIn(t, "device-1", "alice@student.must.edu.mo")

	_, err := s.Reviews.Submit("S1", model.Dimensions{Appearance: 4, Aroma: 4, Taste: 4}, "   ", nil)
	assert.ErrorIs(t, err, ErrEmptyComment)
	assert.False(t, s.Reviews.IsSubmitting())

	_, err = s.Reviews.Submit("nope", model.Dimensions{Appearance: 4, Aroma: 4, Taste: 4}, "fine", nil)
	assert.Error(t, err)
	assert.False(t, s.Reviews.IsSubmitting())
}

func TestReviewService_LikesResetOnIdentityChange(t *testing.T) {
	env := newTestEnv(t, GatewayOptions{})
	s := env.loggedIn(t, "device-1", "alice@student.must.edu.mo")

	liked, err := s.Reviews.Like("S1", "r-s1-b")
	require.NoError(t, err)
	require.True(t, liked)

	require.NoError(t, s.Logout())
	assert.False(t, s.Reviews.HasLiked("r-s1-b"))

	_, err = s.Identity.Register("bob@must.edu.mo", "pass1234", "")
	require.NoError(t, err)
	_, err = s.Login("bob@must.edu.mo", "pass1234")
	require.NoError(t, err)

	view, err := s.Reviews.View("S1")
	require.NoError(t, err)
	assert.Empty(t, view.Liked)

	liked, err = s.Reviews.Like("S1", "r-s1-b")
	require.NoError(t, err)
	assert.True(t, liked)

	reviews, err := env.catalog.Reviews("S1")
	require.NoError(t, err)
	for _, r := range reviews {
		if r.ID == "r-s1-b" {
			assert.Equal(t, 2, r.LikeCount)
		}
	}
}

func TestReviewService_GuestLoginForgetsLikes(t *testing.T) {
	env := newTestEnv(t, GatewayOptions{})
	s := env.loggedIn(t, "device-1", "alice@student.must.edu.mo")

	_, err := s.Reviews.Like("S1", "r-s1-b")
	require.NoError(t, err)

	_, err = s.GuestLogin()
	require.NoError(t, err)
	assert.False(t, s.Reviews.HasLiked("r-s1-b"))
}
