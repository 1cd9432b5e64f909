package component

// HotbarSize is the number of selectable slots.
const HotbarSize = 9

// ItemStack is a stack of one item type. Empty TypeID means an empty slot.
type ItemStack struct {
	TypeID string
	Count  int
}

func (s ItemStack) Empty() bool { return s.TypeID == "" || s.Count <= 0 }

// Actor holds the state of a connected player.
type Actor struct {
	Name         string
	Sneaking     bool
	OnGround     bool
	Health       int
	MaxHealth    int
	SelectedSlot int
	Hotbar       [HotbarSize]ItemStack
	Inbox        []string // newest last, bounded by world config
}

// Selected returns the stack in the selected slot.
func (a *Actor) Selected() ItemStack {
	if a.SelectedSlot < 0 || a.SelectedSlot >= HotbarSize {
		return ItemStack{}
	}
	return a.Hotbar[a.SelectedSlot]
}
