package engine

import "fmt"

// ExtraKind classifies a surcharge line on a bill.
type ExtraKind string

const (
	ExtraTax      ExtraKind = "tax"
	ExtraService  ExtraKind = "service"
	ExtraTip      ExtraKind = "tip"
	ExtraDelivery ExtraKind = "delivery"
	ExtraOther    ExtraKind = "other"
)

// ParseExtraKind validates a raw kind string from the API layer.
func ParseExtraKind(s string) (ExtraKind, error) {
	switch k := ExtraKind(s); k {
	case ExtraTax, ExtraService, ExtraTip, ExtraDelivery, ExtraOther:
		return k, nil
	default:
		return "", fmt.Errorf("unknown extra kind %q", s)
	}
}

// SplitRule is the policy for dividing an extra among participants.
type SplitRule string

const (
	// SplitProportional weights each participant by their item obligation,
	// so the extra scales with how much the person ordered.
	SplitProportional SplitRule = "proportional"

	// SplitFlat splits evenly across all participants.
	SplitFlat SplitRule = "flat"

	// SplitPayerOnly splits evenly across only the participants who paid.
	SplitPayerOnly SplitRule = "payer_only"
)

// ParseSplitRule validates a raw rule string from the API layer.
func ParseSplitRule(s string) (SplitRule, error) {
	switch r := SplitRule(s); r {
	case SplitProportional, SplitFlat, SplitPayerOnly:
		return r, nil
	default:
		return "", fmt.Errorf("unknown split rule %q", s)
	}
}
