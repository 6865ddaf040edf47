package models

// Occupant is what a room slot holds.
type Occupant struct {
	ID         uint   `json:"id"`
	ClientName string `json:"clientName"`
	Gender     string `json:"gender"`
}

// Room is a physical room of a layout. A nil slot is vacant.
// While a room is being worked on, len(Occupants) == Capacity; the stored form keeps only real occupants.
type Room struct {
	Name      string      `json:"name"`
	Type      string      `json:"type"`
	Capacity  int         `json:"capacity"`
	Occupants []*Occupant `json:"occupants"`
}

func (r *Room) VacantCount() int {
	n := 0
	for _, o := range r.Occupants {
		if o == nil {
			n++
		}
	}
	return n
}

func (r *Room) IsVacant() bool {
	return r.VacantCount() == len(r.Occupants)
}

// Holds reports whether the occupant with id sits in one of the room's slots.
func (r *Room) Holds(id uint) bool {
	for _, o := range r.Occupants {
		if o != nil && o.ID == id {
			return true
		}
	}
	return false
}
