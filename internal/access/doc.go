// Package access bridges application goroutines and a single-threaded
// native widget toolkit.
//
// Every native widget is fronted by a node that any goroutine may use. A
// node marshals each operation onto the UI goroutine through a
// dispatch.UIDispatcher and blocks until it completes, so callers never
// touch the toolkit directly. At most one operation per node is in flight;
// a second one starting on the UI goroutine while the first has not
// returned is a protocol violation and panics with *ProtocolError.
//
// # Layers
//
// Node implements the operation-dispatch core: text, image, enabled and
// visible state, listeners, creation and disposal. Control adds parent
// attachment, geometry, colors, font, tooltip and layout data. Composite
// adds children and a layout manager. Shell is the parentless root.
// Each layer handles its operations in ExecuteOperation and defers the rest
// downward; an operation nobody handles panics with ErrUnknownOp.
//
// # Lazy creation
//
// Properties set before a node has a delegate are staged on the node. A
// control becomes creatable only once some ancestor has a delegate, and
// creating it realizes any unrealized ancestors first, top-down from the
// nearest realized one. Each node's delegate is created at most once and
// receives every staged property in a fixed order right after creation:
//
//	font, foreground, background, size, location, tooltip,
//	enabled, visible, layout data, text, image, listeners, layout
//
// Creating a parent never creates its children. A child attached to a
// parent that already has a delegate is realized immediately.
//
// # Disposal
//
// Dispose is terminal and idempotent. A node whose delegate was destroyed
// natively is discovered on its next operation or IsDisposed query and
// becomes disposed; mutators on a disposed node are dropped, Visible and
// Enabled report false, and other queries return the last known value.
package access
