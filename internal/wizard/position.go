package wizard

import "fmt"

// Position is the orchestrator state: a zero-based index into the stage
// order, or Complete once every stage has been submitted.
type Position int

// Complete is the terminal position.
const Complete Position = -1

// IsComplete reports whether the position is terminal.
func (p Position) IsComplete() bool {
	return p == Complete
}

// Number returns the one-based stage number, or 0 when complete.
func (p Position) Number() int {
	if p.IsComplete() {
		return 0
	}
	return int(p) + 1
}

// String returns a human-readable name for the position.
func (p Position) String() string {
	if p.IsComplete() {
		return "Complete"
	}
	return fmt.Sprintf("Stage(%d)", p.Number())
}
