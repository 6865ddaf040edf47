package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// RelatedPerson links a leader booking to another booking of the same family.
type RelatedPerson struct {
	ID uint `json:"ID"`
}

// SelectedHotel holds parallel arrays indexed by leg: Cities[i] is stayed at HotelNames[i] in RoomTypes[i].
type SelectedHotel struct {
	Cities     []string `json:"cities"`
	HotelNames []string `json:"hotelNames"`
	RoomTypes  []string `json:"roomTypes"`
}

type Booking struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"index;column:user_id" json:"userId"`
	TripID uint `gorm:"index;column:trip_id" json:"tripId"`

	ClientNameAr string `gorm:"column:client_name_ar;size:255" json:"clientNameAr"`
	ClientNameFr string `gorm:"column:client_name_fr;size:255" json:"clientNameFr"`
	Gender       string `gorm:"size:32" json:"gender"`

	RelatedPersons datatypes.JSONSlice[RelatedPerson] `gorm:"column:related_persons" json:"relatedPersons"`
	SelectedHotel  datatypes.JSONType[SelectedHotel]  `gorm:"column:selected_hotel" json:"selectedHotel"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ClientName prefers the Arabic name and falls back to the Latin one.
func (b Booking) ClientName() string {
	if name := strings.TrimSpace(b.ClientNameAr); name != "" {
		return name
	}
	return strings.TrimSpace(b.ClientNameFr)
}

// Occupant is the room-slot view of the booking.
func (b Booking) Occupant() Occupant {
	return Occupant{ID: b.ID, ClientName: b.ClientName(), Gender: b.Gender}
}

// References reports whether id is listed in RelatedPersons.
func (b Booking) References(id uint) bool {
	for _, p := range b.RelatedPersons {
		if p.ID == id {
			return true
		}
	}
	return false
}
