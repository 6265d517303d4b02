package property

import (
	"sort"
	"strings"
)

// Matches reports whether p satisfies every field of f except IDs, paging and sort.
// Backends that cannot express the filter in their query language apply it in memory.
func (f ListFilter) Matches(p *Property) bool {
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.PropertyType != "" && p.PropertyType != f.PropertyType {
		return false
	}
	if f.ListingType != "" && p.ListingType != f.ListingType {
		return false
	}
	if f.Featured != nil && p.Featured != *f.Featured {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.Bedrooms != nil && p.Bedrooms < *f.Bedrooms {
		return false
	}
	if f.Bathrooms != nil && p.Bathrooms < *f.Bathrooms {
		return false
	}
	if f.City != "" && !strings.Contains(p.SearchCity, strings.ToLower(f.City)) {
		return false
	}
	if f.Search != "" && !strings.Contains(p.SearchText, strings.ToLower(f.Search)) {
		return false
	}
	return true
}

// SortProperties orders ps in place. PropertyIndex breaks ties so paging is stable.
func SortProperties(ps []Property, order string) {
	less := func(a, b *Property) bool {
		switch order {
		case SortOldest:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.PropertyIndex < b.PropertyIndex
		case SortPriceAsc:
			if a.Price != b.Price {
				return a.Price < b.Price
			}
		case SortPriceDesc:
			if a.Price != b.Price {
				return a.Price > b.Price
			}
		case SortPopular:
			if a.Views != b.Views {
				return a.Views > b.Views
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		}
		return a.PropertyIndex > b.PropertyIndex
	}
	sort.SliceStable(ps, func(i, j int) bool { return less(&ps[i], &ps[j]) })
}

// orderClause is the SQL equivalent of SortProperties.
func orderClause(order string) string {
	switch order {
	case SortOldest:
		return "created_at ASC, property_index ASC"
	case SortPriceAsc:
		return "price ASC, property_index DESC"
	case SortPriceDesc:
		return "price DESC, property_index DESC"
	case SortPopular:
		return "views DESC, property_index DESC"
	default:
		return "created_at DESC, property_index DESC"
	}
}
