package services

import (
	"fmt"

	"hotel-rooming/models"
)

// UnknownGender is the bucket for occupants without a recorded gender. It is never auto-placed.
const UnknownGender = "unknown"

type genderBucket struct {
	gender  string
	members []models.Occupant
}

// Assign places group into rooms of roomType and returns the occupants it left out.
//
// A family whose size equals the capacity (and is more than one person) gets a room of its own
// regardless of gender. Everybody else is split by gender: each gender bucket goes whole into the
// first existing room that already holds only that gender and has enough free slots, or else into
// new rooms, capacity at a time. Only one existing room is tried per bucket. Occupants with no
// gender are returned untouched.
func (a *RoomArena) Assign(roomType string, group []models.Occupant, capacity int) ([]models.Occupant, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: room type %q has capacity %d", ErrInvalidCapacity, roomType, capacity)
	}
	if len(group) == 0 {
		return nil, nil
	}

	if len(group) > 1 && len(group) == capacity {
		room, err := a.FindOrCreate(roomType, capacity)
		if err != nil {
			return nil, err
		}
		for i := range room.Occupants {
			room.Occupants[i] = nil
		}
		for i := range group {
			occ := group[i]
			room.Occupants[i] = &occ
		}
		return nil, nil
	}

	var unassigned []models.Occupant
	for _, bucket := range bucketByGender(group) {
		if bucket.gender == UnknownGender {
			unassigned = append(unassigned, bucket.members...)
			continue
		}
		if a.fillExisting(roomType, bucket) {
			continue
		}
		for start := 0; start < len(bucket.members); start += capacity {
			end := min(start+capacity, len(bucket.members))
			room, err := a.FindOrCreate(roomType, capacity)
			if err != nil {
				return unassigned, err
			}
			for i, occ := range bucket.members[start:end] {
				room.Occupants[i] = &occ
			}
		}
	}
	return unassigned, nil
}

// fillExisting puts the whole bucket into the first single room that can take it.
func (a *RoomArena) fillExisting(roomType string, bucket genderBucket) bool {
	for _, r := range a.Rooms {
		if r.Type != roomType || r.VacantCount() < len(bucket.members) {
			continue
		}
		if !holdsOnly(r, bucket.gender) {
			continue
		}
		next := 0
		for i := range r.Occupants {
			if next == len(bucket.members) {
				break
			}
			if r.Occupants[i] == nil {
				occ := bucket.members[next]
				r.Occupants[i] = &occ
				next++
			}
		}
		return true
	}
	return false
}

func holdsOnly(r *models.Room, gender string) bool {
	for _, o := range r.Occupants {
		if o != nil && genderKey(o.Gender) != gender {
			return false
		}
	}
	return true
}

// bucketByGender keeps buckets in order of first appearance so placement is deterministic.
func bucketByGender(group []models.Occupant) []genderBucket {
	var buckets []genderBucket
	index := map[string]int{}
	for _, occ := range group {
		key := genderKey(occ.Gender)
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, genderBucket{gender: key})
		}
		buckets[i].members = append(buckets[i].members, occ)
	}
	return buckets
}

func genderKey(gender string) string {
	if gender == "" {
		return UnknownGender
	}
	return gender
}
