package inquiry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"realestate_backend/internal/common"
	"realestate_backend/internal/platform/firestoreutil"

	"cloud.google.com/go/firestore"
)

const inquiriesCollection = "inquiries"

type firestoreRepository struct {
	client *firestore.Client
}

func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) col() *firestore.CollectionRef {
	return r.client.Collection(inquiriesCollection)
}

func (r *firestoreRepository) Create(ctx context.Context, i *Inquiry) error {
	i.RefreshSearchFields()
	_, err := r.col().Doc(i.ID).Create(ctx, i)
	return err
}

func (r *firestoreRepository) FindByID(ctx context.Context, id string) (*Inquiry, error) {
	snap, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		if firestoreutil.IsNotFound(err) {
			return nil, common.ErrNotFound.WithDetails("Inquiry not found.")
		}
		return nil, err
	}
	var i Inquiry
	if err := snap.DataTo(&i); err != nil {
		return nil, fmt.Errorf("failed to decode inquiry %s: %w", id, err)
	}
	return &i, nil
}

func (r *firestoreRepository) Update(ctx context.Context, i *Inquiry) error {
	i.RefreshSearchFields()
	_, err := r.col().Doc(i.ID).Set(ctx, i)
	return err
}

func (r *firestoreRepository) Delete(ctx context.Context, id string) error {
	_, err := r.col().Doc(id).Delete(ctx, firestore.Exists)
	if firestoreutil.IsNotFound(err) {
		return common.ErrNotFound.WithDetails("Inquiry not found.")
	}
	return err
}

func (r *firestoreRepository) List(ctx context.Context, f ListFilter) ([]Inquiry, int64, error) {
	q := r.col().Query
	if f.UserID != "" {
		q = q.Where("userId", "==", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status", "==", f.Status)
	}
	if f.PropertyID != "" {
		q = q.Where("propertyId", "==", f.PropertyID)
	}
	all, err := firestoreutil.Collect[Inquiry](q.Documents(ctx))
	if err != nil {
		return nil, 0, err
	}

	inquiries := all[:0]
	needle := strings.ToLower(f.Search)
	for _, i := range all {
		if needle == "" || strings.Contains(i.SearchText, needle) {
			inquiries = append(inquiries, i)
		}
	}
	sort.SliceStable(inquiries, func(a, b int) bool {
		return inquiries[a].CreatedAt.After(inquiries[b].CreatedAt)
	})

	page := common.NewPagination(int64(len(inquiries)), f.Page, f.Limit)
	start, end := page.PageBounds(len(inquiries))
	return inquiries[start:end], int64(len(inquiries)), nil
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
