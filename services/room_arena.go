package services

import (
	"fmt"
	"regexp"
	"strconv"

	"hotel-rooming/models"
)

var roomSuffix = regexp.MustCompile(` (\d+)$`)

// RoomArena owns the working room set of one assignment run. Rooms are mutated in place and must
// not be shared with another run until the arena is saved.
type RoomArena struct {
	Rooms []*models.Room
}

// NewRoomArena expands stored rooms back to fixed-length slot arrays.
func NewRoomArena(stored []models.Room) *RoomArena {
	a := &RoomArena{Rooms: make([]*models.Room, 0, len(stored))}
	for _, r := range stored {
		capacity := r.Capacity
		if capacity < len(r.Occupants) {
			// hand-edited layouts may hold more people than the declared capacity
			capacity = len(r.Occupants)
		}
		slots := make([]*models.Occupant, capacity)
		i := 0
		for _, o := range r.Occupants {
			if o == nil {
				continue
			}
			occ := *o
			slots[i] = &occ
			i++
		}
		a.Rooms = append(a.Rooms, &models.Room{Name: r.Name, Type: r.Type, Capacity: capacity, Occupants: slots})
	}
	return a
}

// FindOrCreate returns the first fully vacant room of roomType, or appends a new one named
// "<roomType> <n>" where n follows the highest number already used for that type.
func (a *RoomArena) FindOrCreate(roomType string, capacity int) (*models.Room, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: room type %q has capacity %d", ErrInvalidCapacity, roomType, capacity)
	}
	for _, r := range a.Rooms {
		if r.Type == roomType && r.IsVacant() {
			if len(r.Occupants) != capacity {
				r.Occupants = make([]*models.Occupant, capacity)
				r.Capacity = capacity
			}
			return r, nil
		}
	}
	room := &models.Room{
		Name:      fmt.Sprintf("%s %d", roomType, a.nextNumber(roomType)),
		Type:      roomType,
		Capacity:  capacity,
		Occupants: make([]*models.Occupant, capacity),
	}
	a.Rooms = append(a.Rooms, room)
	return room, nil
}

func (a *RoomArena) nextNumber(roomType string) int {
	highest := 0
	for _, r := range a.Rooms {
		if r.Type != roomType {
			continue
		}
		m := roomSuffix.FindStringSubmatch(r.Name)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1
}

// Vacate empties every slot held by one of ids. Returns how many slots were freed.
func (a *RoomArena) Vacate(ids []uint) int {
	if len(ids) == 0 {
		return 0
	}
	drop := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	freed := 0
	for _, r := range a.Rooms {
		for i, o := range r.Occupants {
			if o == nil {
				continue
			}
			if _, ok := drop[o.ID]; ok {
				r.Occupants[i] = nil
				freed++
			}
		}
	}
	return freed
}

// Snapshot copies the working rooms out of the arena, vacant slots included.
func (a *RoomArena) Snapshot() []models.Room {
	out := make([]models.Room, 0, len(a.Rooms))
	for _, r := range a.Rooms {
		slots := make([]*models.Occupant, len(r.Occupants))
		copy(slots, r.Occupants)
		out = append(out, models.Room{Name: r.Name, Type: r.Type, Capacity: r.Capacity, Occupants: slots})
	}
	return out
}
