package user

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"realestate_backend/internal/common"
	"realestate_backend/internal/platform/firestoreutil"

	"cloud.google.com/go/firestore"
)

const usersCollection = "users"

type firestoreRepository struct {
	client *firestore.Client
}

func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) col() *firestore.CollectionRef {
	return r.client.Collection(usersCollection)
}

// Create enforces email uniqueness inside a transaction, since Firestore has no unique indexes.
func (r *firestoreRepository) Create(ctx context.Context, user *User) error {
	user.Normalize()
	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing, err := tx.Documents(r.col().Where("email", "==", user.Email).Limit(1)).GetAll()
		if err != nil {
			return fmt.Errorf("failed to check email uniqueness: %w", err)
		}
		if len(existing) > 0 {
			return common.ErrConflict.WithDetails("User with this email already exists.")
		}
		return tx.Create(r.col().Doc(user.ID), user)
	})
}

func (r *firestoreRepository) findOne(ctx context.Context, field, value, notFound string) (*User, error) {
	users, err := firestoreutil.Collect[User](r.col().Where(field, "==", value).Limit(1).Documents(ctx))
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, common.ErrNotFound.WithDetails(notFound)
	}
	return &users[0], nil
}

func (r *firestoreRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, "email", NormalizeEmail(email), "User not found with this email.")
}

func (r *firestoreRepository) FindByFirebaseUID(ctx context.Context, uid string) (*User, error) {
	return r.findOne(ctx, "firebaseUid", uid, "User not found with this Firebase UID.")
}

func (r *firestoreRepository) FindByID(ctx context.Context, id string) (*User, error) {
	snap, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		if firestoreutil.IsNotFound(err) {
			return nil, common.ErrNotFound.WithDetails("User not found with this ID.")
		}
		return nil, err
	}
	var u User
	if err := snap.DataTo(&u); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", id, err)
	}
	return &u, nil
}

func (r *firestoreRepository) Update(ctx context.Context, user *User) error {
	user.Normalize()
	_, err := r.col().Doc(user.ID).Set(ctx, user)
	return err
}

func (r *firestoreRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.col().Doc(id).Delete(ctx, firestore.Exists); err != nil {
		if firestoreutil.IsNotFound(err) {
			return common.ErrNotFound.WithDetails("User not found with this ID.")
		}
		return err
	}
	return nil
}

func (r *firestoreRepository) List(ctx context.Context, f ListFilter) ([]User, int64, error) {
	q := r.col().Query
	if f.Role != "" {
		q = q.Where("role", "==", f.Role)
	}
	if f.Verified != nil {
		q = q.Where("verified", "==", *f.Verified)
	}
	all, err := firestoreutil.Collect[User](q.Documents(ctx))
	if err != nil {
		return nil, 0, err
	}

	term := strings.ToLower(f.Search)
	matched := make([]User, 0, len(all))
	for _, u := range all {
		if term == "" || strings.Contains(u.SearchText, term) {
			matched = append(matched, u)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	page := common.NewPagination(int64(len(matched)), f.Page, f.Limit)
	start, end := page.PageBounds(len(matched))
	return matched[start:end], int64(len(matched)), nil
}

func (r *firestoreRepository) Stats(ctx context.Context) (*Stats, error) {
	var (
		s   Stats
		err error
	)
	if s.Total, err = firestoreutil.Count(ctx, r.col().Query); err != nil {
		return nil, err
	}
	if s.Verified, err = firestoreutil.Count(ctx, r.col().Where("verified", "==", true)); err != nil {
		return nil, err
	}
	if s.Admins, err = firestoreutil.Count(ctx, r.col().Where("role", "==", common.RoleAdmin)); err != nil {
		return nil, err
	}
	if s.Active, err = firestoreutil.Count(ctx, r.col().Where("active", "==", true)); err != nil {
		return nil, err
	}
	return &s, nil
}
