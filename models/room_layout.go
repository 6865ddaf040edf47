package models

import (
	"time"

	"gorm.io/datatypes"
)

// RoomLayout is the persisted room set of one hotel of one program, owned by one agency user.
// (user_id, program_id, hotel_name) is unique.
type RoomLayout struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	UserID    uint   `gorm:"column:user_id;not null;uniqueIndex:idx_room_layout_key,priority:1" json:"userId"`
	ProgramID uint   `gorm:"column:program_id;not null;uniqueIndex:idx_room_layout_key,priority:2" json:"programId"`
	HotelName string `gorm:"column:hotel_name;size:191;not null;uniqueIndex:idx_room_layout_key,priority:3" json:"hotelName"`

	Rooms   datatypes.JSONSlice[Room] `gorm:"column:rooms" json:"rooms"`
	Version int                       `gorm:"column:version;not null" json:"version"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (RoomLayout) TableName() string { return "room_layouts" }
