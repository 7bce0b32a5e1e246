// Package pricing derives booking prices from schedule tiers. All arithmetic
// stays in integer VND.
package pricing

import (
	"fmt"
	"time"

	"github.com/Domenick1991/tourbooking/internal/domain"
)

const (
	CategoryAdult    = "adult"
	CategoryChildren = "children"

	AddOnTourGuide = "tour_guide"
)

// ComputeSubtotal returns adultPrice*adults + childrenPrice*children.
// A composition without adults yields zero and ErrInvalidGuestComposition.
func ComputeSubtotal(s domain.Schedule, g domain.GuestComposition) (domain.Money, error) {
	if err := g.Validate(); err != nil {
		return 0, err
	}
	return s.AdultPrice*domain.Money(g.Adults) + s.ChildrenPrice*domain.Money(g.Children), nil
}

func ComputeTotal(subtotal, serviceFee domain.Money, addOns ...domain.Money) domain.Money {
	total := subtotal + serviceFee
	for _, a := range addOns {
		total += a
	}
	return total
}

// ServiceFeePolicy charges Flat plus BasisPoints/10000 of the subtotal, rounded half up.
type ServiceFeePolicy struct {
	Flat        domain.Money
	BasisPoints int
}

func (p ServiceFeePolicy) Fee(subtotal domain.Money) domain.Money {
	fee := p.Flat
	if p.BasisPoints > 0 && subtotal > 0 {
		fee += (subtotal*domain.Money(p.BasisPoints) + 5000) / 10000
	}
	return fee
}

func TourGuideAddOn(dayRate domain.Money, days int) domain.AddOn {
	if days < 0 {
		days = 0
	}
	return domain.AddOn{
		Code:   AddOnTourGuide,
		Name:   fmt.Sprintf("Tour guide, %d day(s)", days),
		Amount: dayRate * domain.Money(days),
	}
}

type Quote struct {
	ScheduleID int64                   `json:"schedule_id"`
	Guests     domain.GuestComposition `json:"guests"`
	Pricing    domain.Pricing          `json:"pricing"`
	Discount   *int                    `json:"discount_percent,omitempty"`
	Remaining  int                     `json:"remaining"`
	Bookable   bool                    `json:"bookable"`
}

type Calculator struct {
	fees ServiceFeePolicy
}

func NewCalculator(fees ServiceFeePolicy) *Calculator {
	return &Calculator{fees: fees}
}

// Price builds the full breakdown without checking capacity.
func (c *Calculator) Price(s domain.Schedule, g domain.GuestComposition, addOns []domain.AddOn) (domain.Pricing, error) {
	subtotal, err := ComputeSubtotal(s, g)
	if err != nil {
		return domain.Pricing{}, err
	}

	lines := []domain.LineItem{{
		Category:  CategoryAdult,
		Quantity:  g.Adults,
		UnitPrice: s.AdultPrice,
		Amount:    s.AdultPrice * domain.Money(g.Adults),
	}}
	if g.Children > 0 {
		lines = append(lines, domain.LineItem{
			Category:  CategoryChildren,
			Quantity:  g.Children,
			UnitPrice: s.ChildrenPrice,
			Amount:    s.ChildrenPrice * domain.Money(g.Children),
		})
	}

	var addOnTotal domain.Money
	amounts := make([]domain.Money, 0, len(addOns))
	for _, a := range addOns {
		if a.Amount < 0 {
			return domain.Pricing{}, fmt.Errorf("%w: add-on %q has a negative amount", domain.ErrValidation, a.Code)
		}
		amounts = append(amounts, a.Amount)
		addOnTotal += a.Amount
	}

	fee := c.fees.Fee(subtotal)
	return domain.Pricing{
		Lines:      lines,
		AddOns:     addOns,
		Subtotal:   subtotal,
		ServiceFee: fee,
		AddOnTotal: addOnTotal,
		Total:      ComputeTotal(subtotal, fee, amounts...),
	}, nil
}

// Quote prices the request and reports advisory bookability at now.
func (c *Calculator) Quote(s domain.Schedule, g domain.GuestComposition, addOns []domain.AddOn, now time.Time) (Quote, error) {
	p, err := c.Price(s, g, addOns)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		ScheduleID: s.ID,
		Guests:     g,
		Pricing:    p,
		Discount:   ComputeDiscountPercent(s.AdultPrice, s.OriginalPrice),
		Remaining:  domain.RemainingCapacity(s),
		Bookable:   domain.IsBookable(s, g.Total(), now),
	}, nil
}
