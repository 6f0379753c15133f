package bill

import (
	"github.com/hisab-app/hisab/internal/engine"
)

type ItemRequest struct {
	OwnerID   int64  `json:"owner_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
}

type ExtraRequest struct {
	Kind   string `json:"kind"`
	Name   string `json:"name"`
	Amount int64  `json:"amount"`
	Rule   string `json:"split_rule"`
}

type PayerRequest struct {
	UserID          int64   `json:"user_id"`
	Amount          int64   `json:"amount"`
	CoverageType    *string `json:"coverage_type,omitempty"`
	CoverageTargets []int64 `json:"coverage_targets,omitempty"`
}

// CreateBillRequest carries the full composition of a new bill. All monetary
// fields are integer minor units (paisa).
type CreateBillRequest struct {
	RoomID       int64          `json:"room_id"`
	Title        string         `json:"title"`
	Participants []int64        `json:"participants"`
	Items        []ItemRequest  `json:"items"`
	Extras       []ExtraRequest `json:"extras"`
	Payers       []PayerRequest `json:"payers"`
}

// UpdateBillRequest replaces a bill's title and composition wholesale.
// Recorded settlements are untouched.
type UpdateBillRequest struct {
	Title        string         `json:"title"`
	Participants []int64        `json:"participants"`
	Items        []ItemRequest  `json:"items"`
	Extras       []ExtraRequest `json:"extras"`
	Payers       []PayerRequest `json:"payers"`
}

type BillSummaryResponse struct {
	ID        int64  `json:"id"`
	RoomID    int64  `json:"room_id"`
	Title     string `json:"title"`
	CreatedBy int64  `json:"created_by"`
	CreatedAt string `json:"created_at"`
}

// toBill converts a validated request into the domain model. Kind and rule
// strings must already have been parsed by the caller.
func (r *CreateBillRequest) toBill(createdBy int64) (*Bill, error) {
	b := &Bill{
		RoomID:       r.RoomID,
		Title:        r.Title,
		CreatedBy:    createdBy,
		Participants: r.Participants,
		Items:        make([]Item, len(r.Items)),
		Extras:       make([]Extra, len(r.Extras)),
		Payers:       make([]PayerEntry, len(r.Payers)),
	}
	for i, item := range r.Items {
		b.Items[i] = Item{
			OwnerID:   item.OwnerID,
			Name:      item.Name,
			UnitPrice: engine.Money(item.UnitPrice),
			Quantity:  item.Quantity,
		}
	}
	for i, extra := range r.Extras {
		kind, err := engine.ParseExtraKind(extra.Kind)
		if err != nil {
			return nil, err
		}
		rule, err := engine.ParseSplitRule(extra.Rule)
		if err != nil {
			return nil, err
		}
		b.Extras[i] = Extra{
			Kind:   kind,
			Name:   extra.Name,
			Amount: engine.Money(extra.Amount),
			Rule:   rule,
		}
	}
	for i, payer := range r.Payers {
		b.Payers[i] = PayerEntry{
			UserID:          payer.UserID,
			Amount:          engine.Money(payer.Amount),
			CoverageType:    payer.CoverageType,
			CoverageTargets: payer.CoverageTargets,
		}
	}
	return b, nil
}

func (b *Bill) ToSummaryResponse() *BillSummaryResponse {
	return &BillSummaryResponse{
		ID:        b.ID,
		RoomID:    b.RoomID,
		Title:     b.Title,
		CreatedBy: b.CreatedBy,
		CreatedAt: b.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
