package access

// State is the lifecycle position of a node.
type State int32

const (
	// StateUncreated means no delegate exists yet; properties are staged.
	StateUncreated State = iota
	// StateCreating means the delegate is being built and flushed.
	StateCreating
	// StateCreated means the delegate is live.
	StateCreated
	// StateDisposed is terminal.
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateUncreated:
		return "uncreated"
	case StateCreating:
		return "creating"
	case StateCreated:
		return "created"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// propMask records which staged properties were set before realization.
type propMask uint32

const (
	propText propMask = 1 << iota
	propImage
	propEnabled
	propVisible
	propSize
	propLocation
	propToolTip
	propFont
	propForeground
	propBackground
	propLayoutData
	propLayout
)

func (m propMask) has(p propMask) bool { return m&p != 0 }
