package settlement

import (
	"time"

	"github.com/hisab-app/hisab/internal/engine"
)

// Settlement is a recorded peer-to-peer repayment against a bill. Reference
// is a client-visible idempotency handle; Amount is the clamped amount that
// was actually recorded, in minor units.
type Settlement struct {
	ID         int64        `json:"id"`
	Reference  string       `json:"reference"`
	BillID     int64        `json:"bill_id"`
	FromUserID int64        `json:"from_user_id"`
	ToUserID   int64        `json:"to_user_id"`
	Amount     engine.Money `json:"amount"`
	Note       string       `json:"note,omitempty"`
	CreatedBy  int64        `json:"created_by"`
	CreatedAt  time.Time    `json:"created_at"`
}
