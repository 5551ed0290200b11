package ledger

import (
	"errors"

	"github.com/okian/prscore/internal/domain/rules"
)

var (
	ErrUnknownSubject         = errors.New("unknown contingent")
	ErrUnknownEvent           = errors.New("unknown event")
	ErrMemberNotInContingent  = errors.New("member not in contingent")
	ErrMissingPoints          = errors.New("points are required for free-form rules")
	ErrInvalidPoints          = errors.New("invalid points")
	ErrInvalidRuleCombination = errors.New("points disagree with the catalog")
	ErrInvalidRound           = errors.New("invalid round")
	ErrMissingAwarder         = errors.New("awarded_by is required")
	ErrDuplicateAward         = errors.New("duplicate award")

	// ErrRuleNotFound is re-exported so callers can match ledger errors
	// without importing the catalog.
	ErrRuleNotFound = rules.ErrRuleNotFound
)

// codes maps each validation error to a stable machine-readable code.
var codes = []struct { //nolint:gochecknoglobals // read-only lookup
	err  error
	code string
}{
	{ErrUnknownSubject, "unknown_subject"},
	{ErrUnknownEvent, "unknown_event"},
	{ErrMemberNotInContingent, "member_not_in_contingent"},
	{ErrMissingPoints, "missing_points"},
	{ErrInvalidPoints, "invalid_points"},
	{ErrInvalidRuleCombination, "invalid_rule_combination"},
	{ErrInvalidRound, "invalid_round"},
	{ErrMissingAwarder, "missing_awarder"},
	{ErrDuplicateAward, "duplicate_award"},
	{ErrRuleNotFound, "rule_not_found"},
	{rules.ErrInvalidKey, "invalid_rule"},
}

// Code returns the stable code for a ledger error, or "internal" when err
// is not a validation failure.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "internal"
}
