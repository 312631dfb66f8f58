package model

// RatingBreakdown is the per-dimension average shown on a stall page.
type RatingBreakdown struct {
	Appearance float64 `json:"appearance"`
	Aroma      float64 `json:"aroma"`
	Taste      float64 `json:"taste"`
}

type Dish struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	ImageRef    string   `json:"image"`
	Description string   `json:"description"`
	Calories    int      `json:"calories"`
	Rating      float64  `json:"rating"`
	Category    string   `json:"category"`
	IsPopular   bool     `json:"is_popular,omitempty"`
	Reviews     []Review `json:"reviews,omitempty"`
}

// Clone deep-copies the dish.
func (d Dish) Clone() Dish {
	d.Reviews = CloneReviews(d.Reviews)
	return d
}

// Ref is the cart-facing snapshot of the dish.
func (d Dish) Ref() DishRef {
	return DishRef{ID: d.ID, Name: d.Name, Price: d.Price, ImageRef: d.ImageRef}
}

// Stall is a vendor with its own menu and reviews.
type Stall struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Location        string          `json:"location"`
	CuisineType     string          `json:"cuisine_type"`
	Rating          float64         `json:"rating"`
	RatingBreakdown RatingBreakdown `json:"rating_breakdown"`
	ImageRef        string          `json:"image"`
	Tags            []string        `json:"tags"`
	Menu            []Dish          `json:"menu"`
	Reviews         []Review        `json:"reviews"`
}

// Clone deep-copies the stall including menu and reviews.
func (s Stall) Clone() Stall {
	s.Tags = append([]string(nil), s.Tags...)
	menu := make([]Dish, len(s.Menu))
	for i, d := range s.Menu {
		menu[i] = d.Clone()
	}
	s.Menu = menu
	s.Reviews = CloneReviews(s.Reviews)
	return s
}

// AverageMenuPrice is the mean dish price, 0 for an empty menu.
func (s Stall) AverageMenuPrice() float64 {
	if len(s.Menu) == 0 {
		return 0
	}
	var total float64
	for _, d := range s.Menu {
		total += d.Price
	}
	return total / float64(len(s.Menu))
}

type TargetKind string

const (
	TargetStall TargetKind = "stall"
	TargetDish  TargetKind = "dish"
)

// ReviewTarget identifies the owner of a review collection.
type ReviewTarget struct {
	Kind    TargetKind `json:"kind"`
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	StallID string     `json:"stall_id"`
}

// DishWithStall is a dish listed outside its stall page.
type DishWithStall struct {
	Dish      Dish   `json:"dish"`
	StallID   string `json:"stall_id"`
	StallName string `json:"stall_name"`
}
