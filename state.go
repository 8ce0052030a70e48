package irqasync

// slotState is the lifecycle state of an interrupt-wait slot.
//
//	free -> claiming -> reserved -> pending -> free
//	                    reserved ------------> free
//
// A slot's state shares one atomic word with a generation counter that is
// bumped on every claim, so a handle to a released slot is never mistaken
// for a handle to its next reservation.
type slotState uint32

const (
	slotFree slotState = iota
	slotClaiming
	slotReserved
	slotPending
)

const (
	stateBits = 2
	stateMask = 1<<stateBits - 1
	genMask   = 1<<(32-stateBits) - 1
)

func (s slotState) String() string {
	switch s {
	case slotFree:
		return "free"
	case slotClaiming:
		return "claiming"
	case slotReserved:
		return "reserved"
	case slotPending:
		return "pending"
	default:
		return "invalid"
	}
}

// live reports whether a slot in state s belongs to a future.
func (s slotState) live() bool {
	return s == slotReserved || s == slotPending
}

func pack(gen uint32, s slotState) uint32 {
	return (gen&genMask)<<stateBits | uint32(s)
}

func unpack(w uint32) (gen uint32, s slotState) {
	return w >> stateBits, slotState(w & stateMask)
}
