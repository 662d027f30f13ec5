package study

// CanAdvance is the validation gate: forward progress is blocked while
// the consent overlay is open and unresolved. The intro page bypasses
// the gate; the overlay is only mounted on stimulus pages.
func CanAdvance(showCMP bool) bool {
	return !showCMP
}
