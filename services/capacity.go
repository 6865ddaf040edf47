package services

import "hotel-rooming/models"

// DefaultRoomCapacity applies when a program says nothing about a room type.
const DefaultRoomCapacity = 2

// CapacityFor returns the guests count of the first definition of roomType found in the program,
// walking packages, then price structures, then room types. Definitions later in the walk that
// disagree are ignored.
func CapacityFor(program *models.Program, roomType string) int {
	if program == nil {
		return DefaultRoomCapacity
	}
	for _, pkg := range program.Packages {
		for _, price := range pkg.Prices {
			for _, def := range price.RoomTypes {
				if def.Type != roomType {
					continue
				}
				if def.Guests == nil {
					return DefaultRoomCapacity
				}
				return *def.Guests
			}
		}
	}
	return DefaultRoomCapacity
}
