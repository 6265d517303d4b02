package property

import (
	"context"
	"testing"
	"time"

	"realestate_backend/internal/common"
	"realestate_backend/internal/platform/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) Repository {
	t.Helper()
	db, err := database.NewSQLiteInMemory()
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Property{}, &Counter{}))
	return NewGORMRepository(db)
}

func sampleProperty(title, city string, price float64, beds int) *Property {
	p := &Property{
		Title:        title,
		Description:  "A lovely place to live in " + city,
		Price:        price,
		Location:     Location{City: city, Address: "1 Main St"},
		Bedrooms:     beds,
		Bathrooms:    1,
		PropertyType: TypeHouse,
		ListingType:  ListingSale,
		Status:       StatusActive,
		Amenities:    []string{"pool"},
	}
	p.Touch(time.Now())
	return p
}

func TestGORMRepository_CreateAssignsSequentialIndex(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := sampleProperty("Sunny Villa", "Austin", 250000, 3)
	second := sampleProperty("Sunny Villa", "Austin", 300000, 4)
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	assert.Equal(t, int64(1), first.PropertyIndex)
	assert.Equal(t, "PROP-00001", first.PropertyID)
	assert.Equal(t, "sunny-villa-1", first.Slug)
	assert.Equal(t, int64(2), second.PropertyIndex)
	assert.Equal(t, "sunny-villa-2", second.Slug)
	assert.Equal(t, "austin", first.SearchCity)

	got, err := repo.FindByCode(ctx, "prop-00002")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
	assert.Equal(t, []string{"pool"}, got.Amenities)
}

func TestGORMRepository_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.FindByID(ctx, "missing")
	assert.True(t, common.IsNotFound(err))
	_, err = repo.FindByCode(ctx, "PROP-00099")
	assert.True(t, common.IsNotFound(err))
	assert.True(t, common.IsNotFound(repo.Delete(ctx, "missing")))

	ghost := sampleProperty("Ghost", "Denver", 1, 1)
	ghost.ID = "missing"
	assert.True(t, common.IsNotFound(repo.Update(ctx, ghost)))
}

func TestGORMRepository_ListFiltersAndSorts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cheap := sampleProperty("Cozy Cottage", "Seattle", 100000, 1)
	mid := sampleProperty("Family Home", "SEATTLE", 200000, 3)
	pricey := sampleProperty("Ocean Mansion", "Miami", 900000, 6)
	sold := sampleProperty("Old Barn", "Seattle", 50000, 2)
	sold.Status = StatusSold
	for _, p := range []*Property{cheap, mid, pricey, sold} {
		require.NoError(t, repo.Create(ctx, p))
	}

	ps, total, err := repo.List(ctx, ListFilter{Status: StatusActive, City: "seattle", Sort: SortPriceDesc, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, ps, 2)
	assert.Equal(t, mid.ID, ps[0].ID)
	assert.Equal(t, cheap.ID, ps[1].ID)

	minPrice, beds := 150000.0, 3
	ps, total, err = repo.List(ctx, ListFilter{MinPrice: &minPrice, Bedrooms: &beds, Sort: SortPriceAsc, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, []string{mid.ID, pricey.ID}, []string{ps[0].ID, ps[1].ID})

	ps, total, err = repo.List(ctx, ListFilter{Search: "MANSION", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, pricey.ID, ps[0].ID)

	ps, total, err = repo.List(ctx, ListFilter{Page: 2, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, ps, 1)

	ps, total, err = repo.List(ctx, ListFilter{IDs: []string{}, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, ps)
}

func TestGORMRepository_ViewsStatsAndListAfter(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := sampleProperty("Alpha", "Denver", 1000, 1)
	b := sampleProperty("Beta", "Denver", 2000, 1)
	b.PropertyType = TypeCondo
	b.Featured = true
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	require.NoError(t, repo.IncrementViews(ctx, a.ID))
	require.NoError(t, repo.IncrementViews(ctx, a.ID))
	got, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Views)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.Featured)
	assert.Equal(t, int64(2), stats.ByStatus[StatusActive])
	assert.Equal(t, int64(0), stats.ByStatus[StatusSold])
	assert.Equal(t, int64(1), stats.ByType[TypeCondo])

	batch, err := repo.ListAfter(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, b.ID, batch[0].ID)
}
