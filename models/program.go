package models

import (
	"time"

	"gorm.io/datatypes"
)

// RoomTypeDef is one room type offered by a price structure.
// Guests is a pointer so a definition without a "guests" key can be told apart from an explicit 0.
type RoomTypeDef struct {
	Type   string `json:"type"`
	Guests *int   `json:"guests,omitempty"`
}

type PriceStructure struct {
	HotelCombination string        `json:"hotelCombination"`
	RoomTypes        []RoomTypeDef `json:"roomTypes"`
}

type Package struct {
	Name   string           `json:"name,omitempty"`
	Prices []PriceStructure `json:"prices"`
}

// Program is a trip sold by the agency. Only the pricing tree is read by the rooming engine.
type Program struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID uint   `gorm:"index;column:user_id" json:"userId"`
	Name   string `gorm:"size:255" json:"name"`

	Packages datatypes.JSONSlice[Package] `gorm:"column:packages" json:"packages"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
