package scoring

import "errors"

// ErrInvariant reports a ScoreReport whose derived totals disagree with
// their leaves.
var ErrInvariant = errors.New("score report invariant violated")
