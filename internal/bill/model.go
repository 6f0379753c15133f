package bill

import (
	"time"

	"github.com/hisab-app/hisab/internal/engine"
)

// Bill represents a shared bill: its composition (items, extras, payers,
// participants) plus bookkeeping fields. Monetary values are integer minor
// units throughout.
type Bill struct {
	ID        int64     `json:"id"`
	RoomID    int64     `json:"room_id"`
	Title     string    `json:"title"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`

	Participants []int64      `json:"participants"`
	Items        []Item       `json:"items"`
	Extras       []Extra      `json:"extras"`
	Payers       []PayerEntry `json:"payers"`
}

// Item is one purchased line on a bill
type Item struct {
	ID        int64        `json:"id"`
	OwnerID   int64        `json:"owner_id"`
	Name      string       `json:"name"`
	UnitPrice engine.Money `json:"unit_price"`
	Quantity  int64        `json:"quantity"`
}

// Extra is a surcharge line on a bill
type Extra struct {
	ID     int64            `json:"id"`
	Kind   engine.ExtraKind `json:"kind"`
	Name   string           `json:"name"`
	Amount engine.Money     `json:"amount"`
	Rule   engine.SplitRule `json:"split_rule"`
}

// PayerEntry records who paid what at point of sale. CoverageType and
// CoverageTargets are stored and echoed back but do not influence the
// calculation.
type PayerEntry struct {
	ID              int64        `json:"id"`
	UserID          int64        `json:"user_id"`
	Amount          engine.Money `json:"amount"`
	CoverageType    *string      `json:"coverage_type,omitempty"`
	CoverageTargets []int64      `json:"coverage_targets,omitempty"`
}

// ToEngineInput builds the immutable calculation snapshot for this bill.
// Settlements are supplied separately because they live in their own table.
func (b *Bill) ToEngineInput(settlements []engine.Settlement) *engine.Input {
	in := &engine.Input{
		Participants: b.Participants,
		Items:        make([]engine.Item, len(b.Items)),
		Extras:       make([]engine.Extra, len(b.Extras)),
		Payers:       make([]engine.Payer, len(b.Payers)),
		Settlements:  settlements,
	}
	for i, item := range b.Items {
		in.Items[i] = engine.Item{
			Owner:     item.OwnerID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		}
	}
	for i, extra := range b.Extras {
		in.Extras[i] = engine.Extra{
			Kind:   extra.Kind,
			Name:   extra.Name,
			Amount: extra.Amount,
			Rule:   extra.Rule,
		}
	}
	for i, payer := range b.Payers {
		coverageType := ""
		if payer.CoverageType != nil {
			coverageType = *payer.CoverageType
		}
		in.Payers[i] = engine.Payer{
			User:            payer.UserID,
			Amount:          payer.Amount,
			CoverageType:    coverageType,
			CoverageTargets: payer.CoverageTargets,
		}
	}
	return in
}
