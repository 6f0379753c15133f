package settlement

// RecordSettlementRequest asks to record a repayment from one participant to
// another. Amount is in minor units and may be clamped down by the service.
type RecordSettlementRequest struct {
	FromUserID int64  `json:"from_user_id"`
	ToUserID   int64  `json:"to_user_id"`
	Amount     int64  `json:"amount"`
	Note       string `json:"note,omitempty"`
}

// RecordSettlementResponse echoes the recorded settlement. When the requested
// amount exceeded what was settleable, Clamped is true and ClampReason says
// why the stored amount is smaller.
type RecordSettlementResponse struct {
	Settlement  *Settlement `json:"settlement"`
	Clamped     bool        `json:"clamped"`
	ClampReason string      `json:"clamp_reason,omitempty"`
}
