package property

import (
	"context"
	"fmt"
	"strings"

	"realestate_backend/internal/common"
	"realestate_backend/internal/platform/firestoreutil"

	"cloud.google.com/go/firestore"
)

const (
	propertiesCollection = "properties"
	countersCollection   = "counters"
)

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository stores properties as documents keyed by their UUID.
// Equality filters run server side; range and text filters are applied in memory.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) col() *firestore.CollectionRef {
	return r.client.Collection(propertiesCollection)
}

func (r *firestoreRepository) Create(ctx context.Context, p *Property) error {
	counterRef := r.client.Collection(countersCollection).Doc(propertyCounter)
	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var next int64 = 1
		snap, err := tx.Get(counterRef)
		switch {
		case err == nil:
			var c struct {
				Value int64 `firestore:"value"`
			}
			if err := snap.DataTo(&c); err != nil {
				return fmt.Errorf("failed to decode property counter: %w", err)
			}
			next = c.Value + 1
		case firestoreutil.IsNotFound(err):
		default:
			return fmt.Errorf("failed to read property counter: %w", err)
		}

		p.AssignIndex(next)
		p.RefreshSearchFields()
		if err := tx.Set(counterRef, map[string]interface{}{"value": next}); err != nil {
			return err
		}
		return tx.Create(r.col().Doc(p.ID), p)
	})
}

func (r *firestoreRepository) FindByID(ctx context.Context, id string) (*Property, error) {
	snap, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		if firestoreutil.IsNotFound(err) {
			return nil, common.ErrNotFound.WithDetails("Property not found.")
		}
		return nil, err
	}
	var p Property
	if err := snap.DataTo(&p); err != nil {
		return nil, fmt.Errorf("failed to decode property %s: %w", id, err)
	}
	return &p, nil
}

func (r *firestoreRepository) FindByCode(ctx context.Context, code string) (*Property, error) {
	ps, err := firestoreutil.Collect[Property](
		r.col().Where("propertyId", "==", strings.ToUpper(code)).Limit(1).Documents(ctx),
	)
	if err != nil {
		return nil, err
	}
	if len(ps) == 0 {
		return nil, common.ErrNotFound.WithDetails("Property not found.")
	}
	return &ps[0], nil
}

func (r *firestoreRepository) FindByIDs(ctx context.Context, ids []string) ([]Property, error) {
	if len(ids) == 0 {
		return []Property{}, nil
	}
	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, r.col().Doc(id))
	}
	snaps, err := r.client.GetAll(ctx, refs)
	if err != nil {
		return nil, err
	}
	out := make([]Property, 0, len(snaps))
	for _, snap := range snaps {
		if !snap.Exists() {
			continue
		}
		var p Property
		if err := snap.DataTo(&p); err != nil {
			return nil, fmt.Errorf("failed to decode property %s: %w", snap.Ref.ID, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *firestoreRepository) Update(ctx context.Context, p *Property) error {
	p.RefreshSearchFields()
	ref := r.col().Doc(p.ID)
	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if firestoreutil.IsNotFound(err) {
				return common.ErrNotFound.WithDetails("Property not found.")
			}
			return err
		}
		// views is only ever changed by IncrementViews.
		views, err := snap.DataAt("views")
		if err != nil {
			return fmt.Errorf("failed to read property views: %w", err)
		}
		if n, ok := views.(int64); ok {
			p.Views = n
		}
		return tx.Set(ref, p)
	})
}

func (r *firestoreRepository) Delete(ctx context.Context, id string) error {
	_, err := r.col().Doc(id).Delete(ctx, firestore.Exists)
	if err != nil {
		if firestoreutil.IsNotFound(err) {
			return common.ErrNotFound.WithDetails("Property not found.")
		}
		return err
	}
	return nil
}

func (r *firestoreRepository) IncrementViews(ctx context.Context, id string) error {
	_, err := r.col().Doc(id).Update(ctx, []firestore.Update{
		{Path: "views", Value: firestore.Increment(1)},
	})
	return err
}

func (r *firestoreRepository) List(ctx context.Context, f ListFilter) ([]Property, int64, error) {
	q := r.col().Query
	if f.Status != "" {
		q = q.Where("status", "==", f.Status)
	}
	if f.PropertyType != "" {
		q = q.Where("propertyType", "==", f.PropertyType)
	}
	if f.ListingType != "" {
		q = q.Where("listingType", "==", f.ListingType)
	}
	if f.Featured != nil {
		q = q.Where("featured", "==", *f.Featured)
	}

	all, err := firestoreutil.Collect[Property](q.Documents(ctx))
	if err != nil {
		return nil, 0, err
	}

	var allowed map[string]bool
	if f.IDs != nil {
		allowed = make(map[string]bool, len(f.IDs))
		for _, id := range f.IDs {
			allowed[id] = true
		}
	}

	matched := make([]Property, 0, len(all))
	for i := range all {
		if allowed != nil && !allowed[all[i].ID] {
			continue
		}
		if f.Matches(&all[i]) {
			matched = append(matched, all[i])
		}
	}
	SortProperties(matched, f.Sort)

	total := int64(len(matched))
	page := common.NewPagination(total, f.Page, f.Limit)
	start, end := page.PageBounds(len(matched))
	return matched[start:end], total, nil
}

func (r *firestoreRepository) ListAfter(ctx context.Context, after int64, limit int) ([]Property, error) {
	return firestoreutil.Collect[Property](
		r.col().Where("propertyIndex", ">", after).OrderBy("propertyIndex", firestore.Asc).Limit(limit).Documents(ctx),
	)
}

func (r *firestoreRepository) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByStatus: map[string]int64{}, ByType: map[string]int64{}}
	var err error

	if stats.Total, err = firestoreutil.Count(ctx, r.col().Query); err != nil {
		return nil, err
	}
	if stats.Featured, err = firestoreutil.Count(ctx, r.col().Where("featured", "==", true)); err != nil {
		return nil, err
	}
	for _, s := range AllStatuses {
		if stats.ByStatus[s], err = firestoreutil.Count(ctx, r.col().Where("status", "==", s)); err != nil {
			return nil, err
		}
	}
	for _, t := range AllTypes {
		if stats.ByType[t], err = firestoreutil.Count(ctx, r.col().Where("propertyType", "==", t)); err != nil {
			return nil, err
		}
	}
	return stats, nil
}
