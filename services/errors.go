package services

import "errors"

var (
	// ErrInvalidCapacity: a room type resolved to a capacity <= 0. This is a program configuration error.
	ErrInvalidCapacity = errors.New("invalid_room_capacity")
	// ErrConcurrentModification: the layout changed between read and write.
	ErrConcurrentModification = errors.New("concurrent_modification")
	// ErrLeaderConflict: more than one booking claims the same family member.
	ErrLeaderConflict = errors.New("family_leader_conflict")
	ErrInvalidKey     = errors.New("invalid_layout_key")
	ErrLockTimeout    = errors.New("layout_lock_timeout")
)
