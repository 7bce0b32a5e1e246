package pricing

import "github.com/Domenick1991/tourbooking/internal/domain"

// ComputeDiscountPercent returns round((original-base)/original*100) clamped
// to [0, 100]. It is display only and never changes a total. Nil means there
// is no original price to compare against; an original equal to base gives 0.
func ComputeDiscountPercent(base domain.Money, original *domain.Money) *int {
	if original == nil || *original <= 0 {
		return nil
	}
	if *original < base {
		return nil
	}

	diff := int64(*original - base)
	orig := int64(*original)
	// half up on the integer ratio
	percent := int((diff*200 + orig) / (2 * orig))
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return &percent
}

// DiscountBadge reports a percentage only when there is something to show.
func DiscountBadge(base domain.Money, original *domain.Money) (int, bool) {
	p := ComputeDiscountPercent(base, original)
	if p == nil || *p == 0 {
		return 0, false
	}
	return *p, true
}
