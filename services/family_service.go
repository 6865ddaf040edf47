package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"hotel-rooming/models"

	"gorm.io/gorm"
)

// FamilyService rebuilds family units from booking records.
type FamilyService struct {
	DB *gorm.DB
}

func NewFamilyService(db *gorm.DB) *FamilyService {
	return &FamilyService{DB: db}
}

// ResolveMembers returns every booking of the family bookingID belongs to, leader included,
// ordered by id. Only bookings of userID on trip programID are considered: a booking that does not
// exist there yields an empty slice, and related persons booked on another trip are left out.
//
// The leader is the booking holding the relatedPersons list: either bookingID itself or the booking
// of the same trip that lists it. Resolution is one hop; if two bookings list bookingID the family
// is ambiguous and ErrLeaderConflict is returned.
func (s *FamilyService) ResolveMembers(ctx context.Context, userID, programID, bookingID uint) ([]models.Booking, error) {
	var booking models.Booking
	err := s.DB.WithContext(ctx).
		Where("id = ? AND user_id = ? AND trip_id = ?", bookingID, userID, programID).
		First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []models.Booking{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load booking %d: %w", bookingID, err)
	}

	leader := booking
	if len(booking.RelatedPersons) == 0 {
		found, err := s.findLeader(ctx, booking)
		if err != nil {
			return nil, err
		}
		if found != nil {
			leader = *found
		}
	}

	ids := []uint{leader.ID}
	for _, p := range leader.RelatedPersons {
		if p.ID != 0 && p.ID != leader.ID {
			ids = append(ids, p.ID)
		}
	}

	var members []models.Booking
	if err := s.DB.WithContext(ctx).
		Where("user_id = ? AND trip_id = ? AND id IN ?", userID, programID, ids).
		Order("id ASC").
		Find(&members).Error; err != nil {
		return nil, fmt.Errorf("load family of booking %d: %w", bookingID, err)
	}
	return members, nil
}

// findLeader looks for the booking of the same user and trip whose relatedPersons lists member.
func (s *FamilyService) findLeader(ctx context.Context, member models.Booking) (*models.Booking, error) {
	var candidates []models.Booking
	if err := s.DB.WithContext(ctx).
		Where("user_id = ? AND trip_id = ? AND id <> ?", member.UserID, member.TripID, member.ID).
		Order("id ASC").
		Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("search leader of booking %d: %w", member.ID, err)
	}

	var leader *models.Booking
	for i := range candidates {
		if !candidates[i].References(member.ID) {
			continue
		}
		if leader != nil {
			return nil, fmt.Errorf("%w: booking %d is listed by bookings %d and %d",
				ErrLeaderConflict, member.ID, leader.ID, candidates[i].ID)
		}
		leader = &candidates[i]
	}
	return leader, nil
}

// GroupByHotel buckets members by every hotel they selected. A member staying in several hotels
// appears in each of them. A member with two legs in the same hotel is listed once for it, and
// GroupByRoomType then uses the room type of the first of those legs.
func GroupByHotel(members []models.Booking) map[string][]models.Booking {
	out := map[string][]models.Booking{}
	for _, m := range members {
		sel := m.SelectedHotel.Data()
		seen := map[string]bool{}
		for i := range sel.Cities {
			if i >= len(sel.HotelNames) {
				break
			}
			hotel := strings.TrimSpace(sel.HotelNames[i])
			if hotel == "" || seen[hotel] {
				continue
			}
			seen[hotel] = true
			out[hotel] = append(out[hotel], m)
		}
	}
	return out
}

// GroupByRoomType buckets members by the room type they selected for hotelName.
// Members with no leg in that hotel, or no room type for it, are skipped.
func GroupByRoomType(members []models.Booking, hotelName string) map[string][]models.Booking {
	out := map[string][]models.Booking{}
	for _, m := range members {
		roomType := RoomTypeAt(m, hotelName)
		if roomType == "" {
			continue
		}
		out[roomType] = append(out[roomType], m)
	}
	return out
}

// RoomTypeAt returns the room type booked for the first leg at hotelName, or "".
func RoomTypeAt(b models.Booking, hotelName string) string {
	sel := b.SelectedHotel.Data()
	for i, hotel := range sel.HotelNames {
		if strings.TrimSpace(hotel) != hotelName {
			continue
		}
		if i >= len(sel.RoomTypes) {
			return ""
		}
		return strings.TrimSpace(sel.RoomTypes[i])
	}
	return ""
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
