package state

// Box is one of the 20 fixed slots in a room's value ladder. Value is
// hidden from every projection until IsOpened is true.
type Box struct {
	Number           int
	Value            float64
	IsOpened         bool
	OpenedByPlayerID string // empty until opened
}

// IsOpenable reports whether a box can currently be opened by the turn
// holder: unopened and not reserved as anyone's personal box.
func (b *Box) IsOpenable(ownedBoxNumbers map[int]bool) bool {
	return !b.IsOpened && !ownedBoxNumbers[b.Number]
}
