// Package driver defines the capability surface the core consumes from a
// UI session. The real implementation drives a browser; tests use in-memory
// fakes. The core never owns the session, it is injected as a capability.
package driver

import "encoding/json"

// EntityRef identifies one account as revealed by the list UI. The ID is the
// stable key; the username is a display handle. Metadata carries profile
// fields the core does not interpret.
type EntityRef struct {
	ID       string
	Username string
	Metadata json.RawMessage
}

// ActionResult classifies the outcome of one ApplyAction call.
type ActionResult int

const (
	// ActionSuccess means the driver positively confirmed the action.
	ActionSuccess ActionResult = iota
	// ActionAmbiguous means the driver cannot confirm the action landed.
	// Callers must treat the action as not applied.
	ActionAmbiguous
	// ActionFailure means the action definitely did not apply, e.g. the
	// account turned out not to be followed anymore.
	ActionFailure
)

func (r ActionResult) String() string {
	switch r {
	case ActionSuccess:
		return "success"
	case ActionAmbiguous:
		return "ambiguous"
	case ActionFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// ListSource is the paginated-collection capability over one virtualized
// list. The list reveals a small window at a time and gives no reliable
// end-of-list signal.
type ListSource interface {
	// RevealNextPage advances the virtualized window and returns the
	// entities now visible. The same entity may appear across calls.
	RevealNextPage() ([]EntityRef, error)

	// CurrentlyVisible returns the entities in the current window without
	// advancing it.
	CurrentlyVisible() ([]EntityRef, error)

	// ReportedTotal returns the total the source claims for this list,
	// when the page header exposes one.
	ReportedTotal() (int, bool)
}

// ListOpener hands out a ListSource for one of the profile's lists. The
// session is an exclusive resource, so only one ListSource is live at a time.
type ListOpener interface {
	OpenList(name string) (ListSource, error)
}

// ActionDriver is the mutating-action capability.
type ActionDriver interface {
	ApplyAction(ref EntityRef) (ActionResult, error)
}

// BlockProbe reports block phrases currently observable in the session.
// The returned values are a subset of the configured vocabulary.
type BlockProbe interface {
	ObservedBlockPhrases() []string
}

// Session is the full capability set one exclusive browser session exposes.
type Session interface {
	ListOpener
	ActionDriver
	BlockProbe
	Close() error
}
