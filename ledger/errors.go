package ledger

import "github.com/pkg/errors"

var (
	// ErrDuplicateEvent means the (txHash, logIndex, chainId) triple was
	// already applied. Absorbed silently by the dispatcher; re-delivery is
	// expected under at-least-once semantics.
	ErrDuplicateEvent = errors.New("event already applied")

	// ErrMissingReference means the event references an aggregate that does
	// not exist, e.g. a harvest for a pool with no active stakes. The single
	// event is skipped, never the surrounding batch.
	ErrMissingReference = errors.New("referenced aggregate missing")

	// ErrPrecondition means the event violates a handler invariant, e.g. an
	// unstake larger than the recorded principal. The event is rejected and
	// the entity left unchanged.
	ErrPrecondition = errors.New("handler precondition violated")

	// ErrNoHandler means no handler is mapped for the (contract, event)
	// combination. Logged and ignored, forward-compatible with contract
	// upgrades that add events.
	ErrNoHandler = errors.New("no handler for event")
)
