package service

import (
	"sync"
	"testing"
	"time"

	"github.com/ikkim/must-canteen/internal/app/model"
	"github.com/ikkim/must-canteen/internal/app/repository"
	"github.com/ikkim/must-canteen/internal/db"
	"github.com/ikkim/must-canteen/pkg/util"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	util.BcryptCost = bcrypt.MinCost
}

func date(t *testing.T, s string) model.Date {
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}

// fixtureStalls: S1 with dishes D1 (40) and D2 (15), S2 with D3 (30).
func fixtureStalls(t *testing.T) []model.Stall {
	return []model.Stall{
		{
			ID:          "S1",
			Name:        "Noodle Bar",
			CuisineType: "中式",
			Rating:      4.5,
			Tags:        []string{"面条", "Spicy"},
			Reviews: []model.Review{
				{ID: "r-s1-a", AuthorID: "u-other", AuthorName: "Bob", OverallRating: 5, Comment: "great", SubmittedAt: date(t, "2024-04-01"), LikeCount: 2},
				{ID: "r-s1-b", AuthorID: "u-other", AuthorName: "Bob", OverallRating: 3, Comment: "ok", SubmittedAt: date(t, "2024-04-03")},
			},
			Menu: []model.Dish{
				{ID: "D1", Name: "Beef Noodles", Price: 40, Category: "面条", Description: "slow braised", Rating: 4.8},
				{ID: "D2", Name: "Dumplings", Price: 15, Category: "点心", Rating: 4.1, Reviews: []model.Review{
					{ID: "r-d2-a", AuthorID: "u-other", OverallRating: 5, Comment: "juicy", SubmittedAt: date(t, "2024-03-01"), LikeCount: 9},
				}},
			},
		},
		{
			ID:          "S2",
			Name:        "Rice House",
			CuisineType: "日式",
			Rating:      4.0,
			Tags:        []string{"米饭"},
			Menu: []model.Dish{
				{ID: "D3", Name: "Curry Rice", Price: 30, Category: "米饭", Rating: 4.9},
			},
		},
	}
}

// pausingSleep lets a test hold a gateway call until release is closed.
type pausingSleep struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newPausingSleep() *pausingSleep {
	return &pausingSleep{entered: make(chan struct{}), release: make(chan struct{})}
}

func (p *pausingSleep) Sleep(time.Duration) {
	p.once.Do(func() { close(p.entered) })
	<-p.release
}

type testEnv struct {
	db      *gorm.DB
	catalog repository.CatalogRepository
	factory SessionFactory
	opts    GatewayOptions
}

func newTestEnv(t *testing.T, opts GatewayOptions) *testEnv {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	catalog := repository.NewCatalogRepository(fixtureStalls(t))
	if opts.Sleep == nil {
		opts.Sleep = func(time.Duration) {}
	}
	store := func(scope string) repository.KVStore {
		return repository.NewDeviceStore(testDB, scope)
	}
	return &testEnv{
		db:      testDB,
		catalog: catalog,
		opts:    opts,
		factory: SessionFactory{
			Store:       store,
			Credentials: repository.NewCredentialRepository(store(repository.SharedScope)),
			Catalog:     catalog,
			Gateway:     NewGatewayService(catalog, opts),
		},
	}
}

func (e *testEnv) session(deviceID string) *Session {
	return e.factory.New(deviceID)
}

// loggedIn registers and logs in a fresh account on a new device session.
func (e *testEnv) loggedIn(t *testing.T, deviceID, email string) *Session {
	s := e.session(deviceID)
	_, err := s.Identity.Register(email, "pass1234", "")
	require.NoError(t, err)
	_, err = s.Login(email, "pass1234")
	require.NoError(t, err)
	s.DrainNotices()
	return s
}

func dishRef(t *testing.T, catalog repository.CatalogRepository, id string) (model.DishRef, string, string) {
	d, err := catalog.FindDish(id)
	require.NoError(t, err)
	return d.Dish.Ref(), d.StallID, d.StallName
}

func accept(string, string) bool  { return true }
func decline(string, string) bool { return false }

type recordingNavigator struct {
	mu     sync.Mutex
	events []*model.UserProfile
}

func (n *recordingNavigator) IdentityChanged(profile *model.UserProfile) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, profile)
}

type staticPush struct {
	notifier  Notifier
	navigator Navigator
}

func (p staticPush) NotifierFor(string) Notifier   { return p.notifier }
func (p staticPush) NavigatorFor(string) Navigator { return p.navigator }
