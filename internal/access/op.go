package access

import "fmt"

// Op names an operation executed on the UI goroutine against a node's
// delegate. The set is closed: an Op that no layer of a node handles is a
// programming error and panics.
type Op int

// Core operations, handled by Node.
const (
	OpNone Op = iota
	OpCreate
	OpDispose
	OpIsDisposed
	OpSetText
	OpGetText
	OpSetImage
	OpGetImage
	OpSetEnabled
	OpGetEnabled
	OpSetVisible
	OpGetVisible
	OpAddListener

	// Control operations.
	OpSetParent
	OpSetSize
	OpGetSize
	OpSetLocation
	OpGetLocation
	OpSetToolTip
	OpGetToolTip
	OpSetFont
	OpGetFont
	OpSetForeground
	OpGetForeground
	OpSetBackground
	OpGetBackground
	OpSetLayoutData
	OpGetLayoutData

	// Composite operations.
	OpSetLayout
	OpLayout
	OpDump

	opBuiltinEnd
)

// OpUser is the first value available to wrapper-defined operations.
// Wrappers handle them in their Extension.
const OpUser Op = 1000

type opKind int

const (
	opLifecycle opKind = iota
	opMutator
	opQuery
)

var opTable = [opBuiltinEnd]struct {
	name string
	kind opKind
}{
	OpNone:          {"none", opLifecycle},
	OpCreate:        {"create", opLifecycle},
	OpDispose:       {"dispose", opLifecycle},
	OpIsDisposed:    {"isDisposed", opLifecycle},
	OpSetText:       {"setText", opMutator},
	OpGetText:       {"getText", opQuery},
	OpSetImage:      {"setImage", opMutator},
	OpGetImage:      {"getImage", opQuery},
	OpSetEnabled:    {"setEnabled", opMutator},
	OpGetEnabled:    {"getEnabled", opQuery},
	OpSetVisible:    {"setVisible", opMutator},
	OpGetVisible:    {"getVisible", opQuery},
	OpAddListener:   {"addListener", opMutator},
	OpSetParent:     {"setParent", opLifecycle},
	OpSetSize:       {"setSize", opMutator},
	OpGetSize:       {"getSize", opQuery},
	OpSetLocation:   {"setLocation", opMutator},
	OpGetLocation:   {"getLocation", opQuery},
	OpSetToolTip:    {"setToolTip", opMutator},
	OpGetToolTip:    {"getToolTip", opQuery},
	OpSetFont:       {"setFont", opMutator},
	OpGetFont:       {"getFont", opQuery},
	OpSetForeground: {"setForeground", opMutator},
	OpGetForeground: {"getForeground", opQuery},
	OpSetBackground: {"setBackground", opMutator},
	OpGetBackground: {"getBackground", opQuery},
	OpSetLayoutData: {"setLayoutData", opMutator},
	OpGetLayoutData: {"getLayoutData", opQuery},
	OpSetLayout:     {"setLayout", opMutator},
	OpLayout:        {"layout", opMutator},
	OpDump:          {"dump", opQuery},
}

// String returns the operation name.
func (op Op) String() string {
	if op >= 0 && op < opBuiltinEnd {
		return opTable[op].name
	}
	if op >= OpUser {
		return fmt.Sprintf("user(%d)", op-OpUser)
	}
	return fmt.Sprintf("op(%d)", int(op))
}

// IsMutator reports whether the operation changes node or delegate state.
// Mutators on a disposed node are dropped. Wrapper operations count as
// mutators.
func (op Op) IsMutator() bool {
	if op >= 0 && op < opBuiltinEnd {
		return opTable[op].kind == opMutator
	}
	return op >= OpUser
}

// IsQuery reports whether the operation only reads state.
func (op Op) IsQuery() bool {
	return op >= 0 && op < opBuiltinEnd && opTable[op].kind == opQuery
}
