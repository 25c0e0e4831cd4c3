// Package hooking lets a driver observe a Channel or Comp's internal
// state transitions without the scheduling core depending on any
// concrete logger. Unlike a general-purpose simulator's hook registry,
// which supports an open-ended set of pointer-identified positions across
// arbitrary component types, this module only ever fires from four fixed
// sites in internal/org.Channel, so HookPos is a closed enum rather than
// a registry of dynamically allocated hook points.
package hooking

// HookPos identifies one of the fixed sites a Hook can fire from.
type HookPos int

// The four sites internal/org.Channel.Tick invokes a hook from. Within a
// single tick they fire in the order BeforeChannelTick, ModeSwitch,
// BusPopulated, BankScheduled.
const (
	// HookPosBeforeChannelTick fires at the very start of Tick, before
	// warmup, collision detection, or scheduling has run.
	HookPosBeforeChannelTick HookPos = iota

	// HookPosBankScheduled fires whenever schedulePackets commits a
	// request to a bank; Detail carries the resulting org.BankRequest.
	HookPosBankScheduled

	// HookPosModeSwitch fires whenever swapWriteMode actually flips
	// read/write mode; Detail carries the new write-mode bool.
	HookPosModeSwitch

	// HookPosBusPopulated fires whenever populateDBus promotes a bank
	// request onto the data bus; Detail carries its bank index.
	HookPosBusPopulated
)

// String names the position, for a Hook that logs or labels events.
func (p HookPos) String() string {
	switch p {
	case HookPosBeforeChannelTick:
		return "BeforeChannelTick"
	case HookPosBankScheduled:
		return "BankScheduled"
	case HookPosModeSwitch:
		return "ModeSwitch"
	case HookPosBusPopulated:
		return "BusPopulated"
	default:
		return "Unknown"
	}
}

// HookCtx carries what a Hook needs about the site it fired from: which
// Hookable raised it, at which position, and that position's payload
// (see the HookPos constants above for what Detail holds at each site).
type HookCtx struct {
	Domain Hookable
	Pos    HookPos
	Detail interface{}
}

// Hookable is a channel or component that can accept Hooks and report how
// many are registered.
type Hookable interface {
	AcceptHook(hook Hook)
	NumHooks() int
}

// Hook reacts to a HookCtx fired by a Hookable.
type Hook interface {
	Func(ctx HookCtx)
}

// HookableBase implements Hookable: a flat list of hooks, fanned out in
// registration order, with duplicate registration refused rather than
// silently invoking the same hook twice per site.
type HookableBase struct {
	hooks []Hook
}

// NumHooks returns the number of hooks currently registered.
func (h *HookableBase) NumHooks() int { return len(h.hooks) }

// AcceptHook registers hook, panicking if it is already registered.
func (h *HookableBase) AcceptHook(hook Hook) {
	for _, existing := range h.hooks {
		if existing == hook {
			panic("hooking: hook already registered")
		}
	}

	h.hooks = append(h.hooks, hook)
}

// InvokeHook fans ctx out to every registered hook, in registration
// order.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hooks {
		hook.Func(ctx)
	}
}
