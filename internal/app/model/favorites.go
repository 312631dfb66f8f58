package model

// Favorites holds the device's favorite stall and dish ids.
// JSON names match the blob written by earlier clients.
type Favorites struct {
	Stalls []string `json:"restaurants"`
	Dishes []string `json:"dishes"`
}

// HasStall reports stall membership.
func (f Favorites) HasStall(id string) bool { return contains(f.Stalls, id) }

// HasDish reports dish membership.
func (f Favorites) HasDish(id string) bool { return contains(f.Dishes, id) }

// ToggleStall returns a new state with id flipped and whether it is now a favorite.
func (f Favorites) ToggleStall(id string) (Favorites, bool) {
	stalls, added := toggle(f.Stalls, id)
	return Favorites{Stalls: stalls, Dishes: cloneIDs(f.Dishes)}, added
}

// ToggleDish returns a new state with id flipped and whether it is now a favorite.
func (f Favorites) ToggleDish(id string) (Favorites, bool) {
	dishes, added := toggle(f.Dishes, id)
	return Favorites{Stalls: cloneIDs(f.Stalls), Dishes: dishes}, added
}

// Clone copies both id lists.
func (f Favorites) Clone() Favorites {
	return Favorites{Stalls: cloneIDs(f.Stalls), Dishes: cloneIDs(f.Dishes)}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func toggle(ids []string, id string) ([]string, bool) {
	out := make([]string, 0, len(ids)+1)
	removed := false
	for _, v := range ids {
		if v == id {
			removed = true
			continue
		}
		out = append(out, v)
	}
	if removed {
		return out, false
	}
	return append(out, id), true
}

func cloneIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
