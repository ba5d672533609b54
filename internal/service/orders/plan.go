package orders

import "github.com/showbill/boxoffice/internal/domain"

const (
	minQuantity = 1
	maxQuantity = 5
)

func validateQuantity(qty int) error {
	if qty < minQuantity || qty > maxQuantity {
		return ErrInvalidQuantity
	}
	return nil
}

// stockAdjustment is one ledger leg of a planned mutation.
type stockAdjustment struct {
	offeringID int64
	qty        int
}

// editPlan is the ledger side of an order edit, computed up front so the
// transaction applies exactly these legs and nothing else.
type editPlan struct {
	releases        []stockAdjustment
	reserves        []stockAdjustment
	offeringChanged bool
}

// planEdit derives the release/reserve legs for moving an order to
// newOfferingID/newQty.
//
// Offering changed: the full original quantity goes back to the original
// offering and the full new quantity is taken from the new one. Offering
// unchanged: only the signed delta moves. A no-op edit yields an empty plan
// (the total is still recomputed from the current unit price).
func planEdit(ord domain.Order, newOfferingID int64, newQty int) (editPlan, error) {
	if err := validateQuantity(newQty); err != nil {
		return editPlan{}, err
	}

	if ord.Status.Terminal() {
		return editPlan{}, &InvalidTransitionError{From: ord.Status, To: ord.Status}
	}

	var p editPlan

	if newOfferingID != ord.OfferingID {
		p.offeringChanged = true
		p.releases = append(p.releases, stockAdjustment{ord.OfferingID, ord.Quantity})
		p.reserves = append(p.reserves, stockAdjustment{newOfferingID, newQty})
		return p, nil
	}

	switch delta := newQty - ord.Quantity; {
	case delta > 0:
		p.reserves = append(p.reserves, stockAdjustment{ord.OfferingID, delta})
	case delta < 0:
		p.releases = append(p.releases, stockAdjustment{ord.OfferingID, -delta})
	}

	return p, nil
}
