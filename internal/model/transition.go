package model

// Op names a seat state machine operation.
type Op string

const (
	OpPurchase    Op = "purchase"
	OpValidate    Op = "validate"
	OpToggleBlock Op = "toggle_block"
	OpRelease     Op = "release"
	OpReset       Op = "reset"
)

// Next returns the status op moves a seat to from current, and false when
// op is not allowed from current.  OpReset is an administrative override
// and applies to every status.
//
//	available --toggle_block--> blocked
//	blocked   --toggle_block--> available
//	available --purchase------> sold
//	sold      --validate------> validated
//	sold      --release-------> available
//	*         --reset---------> available
func Next(op Op, current SeatStatus) (SeatStatus, bool) {
	switch op {
	case OpToggleBlock:
		switch current {
		case StatusAvailable:
			return StatusBlocked, true
		case StatusBlocked:
			return StatusAvailable, true
		}
	case OpPurchase:
		if current == StatusAvailable {
			return StatusSold, true
		}
	case OpValidate:
		if current == StatusSold {
			return StatusValidated, true
		}
	case OpRelease:
		if current == StatusSold {
			return StatusAvailable, true
		}
	case OpReset:
		return StatusAvailable, true
	}
	return "", false
}
