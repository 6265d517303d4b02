package review

import (
	"context"
	"fmt"
	"sort"

	"realestate_backend/internal/common"
	"realestate_backend/internal/platform/firestoreutil"

	"cloud.google.com/go/firestore"
)

const reviewsCollection = "reviews"

type firestoreRepository struct {
	client *firestore.Client
}

func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) col() *firestore.CollectionRef {
	return r.client.Collection(reviewsCollection)
}

func (r *firestoreRepository) Create(ctx context.Context, rv *Review) error {
	_, err := r.col().Doc(rv.ID).Create(ctx, rv)
	return err
}

func (r *firestoreRepository) FindByID(ctx context.Context, id string) (*Review, error) {
	snap, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		if firestoreutil.IsNotFound(err) {
			return nil, common.ErrNotFound.WithDetails("Review not found.")
		}
		return nil, err
	}
	var rv Review
	if err := snap.DataTo(&rv); err != nil {
		return nil, fmt.Errorf("failed to decode review %s: %w", id, err)
	}
	return &rv, nil
}

func (r *firestoreRepository) Update(ctx context.Context, rv *Review) error {
	_, err := r.col().Doc(rv.ID).Set(ctx, rv)
	return err
}

func (r *firestoreRepository) Delete(ctx context.Context, id string) error {
	_, err := r.col().Doc(id).Delete(ctx, firestore.Exists)
	if firestoreutil.IsNotFound(err) {
		return common.ErrNotFound.WithDetails("Review not found.")
	}
	return err
}

func (r *firestoreRepository) query(f ListFilter) firestore.Query {
	q := r.col().Query
	if f.UserID != "" {
		q = q.Where("userId", "==", f.UserID)
	}
	if f.PropertyID != "" {
		q = q.Where("propertyId", "==", f.PropertyID)
	}
	if f.Status != "" {
		q = q.Where("status", "==", f.Status)
	}
	return q
}

// List sorts in memory so that no composite index is needed per filter combination.
func (r *firestoreRepository) List(ctx context.Context, f ListFilter) ([]Review, int64, error) {
	reviews, err := firestoreutil.Collect[Review](r.query(f).Documents(ctx))
	if err != nil {
		return nil, 0, err
	}
	sort.SliceStable(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
	page := common.NewPagination(int64(len(reviews)), f.Page, f.Limit)
	start, end := page.PageBounds(len(reviews))
	return reviews[start:end], int64(len(reviews)), nil
}

func (r *firestoreRepository) RatingSummary(ctx context.Context, propertyID string) (RatingSummary, error) {
	reviews, err := firestoreutil.Collect[Review](
		r.query(ListFilter{PropertyID: propertyID, Status: StatusApproved}).Documents(ctx),
	)
	if err != nil {
		return RatingSummary{}, err
	}
	return summarize(reviews), nil
}

func (r *firestoreRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(AllStatuses))
	for _, s := range AllStatuses {
		n, err := firestoreutil.Count(ctx, r.col().Where("status", "==", s))
		if err != nil {
			return nil, err
		}
		counts[s] = n
	}
	return counts, nil
}
