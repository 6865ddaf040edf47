package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"hotel-rooming/models"

	"gorm.io/gorm"
)

const (
	defaultLockWait   = 5 * time.Second
	searchResultLimit = 20
)

// likeEscaper makes a search term match literally inside LIKE ... ESCAPE '!'.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// RoomingService is the entry point used by controllers: it resolves families, packs them into
// rooms and keeps each hotel layout consistent under a per-layout lock.
type RoomingService struct {
	DB       *gorm.DB
	Families *FamilyService
	Layouts  *LayoutService
	Locker   KeyLocker
	Events   EventPublisher
	LockWait time.Duration
}

func NewRoomingService(db *gorm.DB, locker KeyLocker, events EventPublisher) *RoomingService {
	if locker == nil {
		locker = NewLocalLocker()
	}
	if events == nil {
		events = NoopPublisher{}
	}
	return &RoomingService{
		DB:       db,
		Families: NewFamilyService(db),
		Layouts:  NewLayoutService(db),
		Locker:   locker,
		Events:   events,
		LockWait: defaultLockWait,
	}
}

// AssignmentResult is the outcome of auto-assign for one hotel.
type AssignmentResult struct {
	HotelName  string            `json:"hotelName"`
	Layout     Layout            `json:"layout"`
	Placed     []uint            `json:"placed"`
	Unassigned []models.Occupant `json:"unassigned"`
}

// UnassignedOccupant is a search hit for the manual editor.
type UnassignedOccupant struct {
	models.Occupant
	RoomType string `json:"roomType"`
}

func (s *RoomingService) GetLayout(ctx context.Context, key LayoutKey) (Layout, error) {
	return s.Layouts.Load(ctx, key)
}

func (s *RoomingService) ListLayouts(ctx context.Context, userID, programID uint) ([]models.RoomLayout, error) {
	return s.Layouts.LoadAllForProgram(ctx, userID, programID)
}

// AutoAssign places the family of bookingID into the layouts of the hotels it booked.
// With hotelName set, only that hotel is processed. Family members already in a layout are moved,
// never duplicated.
func (s *RoomingService) AutoAssign(ctx context.Context, userID, programID uint, hotelName string, bookingID uint) ([]AssignmentResult, error) {
	members, err := s.Families.ResolveMembers(ctx, userID, programID, bookingID)
	if err != nil {
		return nil, err
	}
	results := []AssignmentResult{}
	if len(members) == 0 {
		log.Printf("⚠️ auto-assign: booking %d not found in program %d of user %d", bookingID, programID, userID)
		return results, nil
	}

	program, err := s.loadProgram(ctx, userID, programID)
	if err != nil {
		return nil, err
	}

	byHotel := GroupByHotel(members)
	hotelName = strings.TrimSpace(hotelName)
	for _, hotel := range sortedKeys(byHotel) {
		if hotelName != "" && hotel != hotelName {
			continue
		}
		key := LayoutKey{UserID: userID, ProgramID: programID, HotelName: hotel}
		var res AssignmentResult
		err := s.withLock(ctx, key, func() error {
			var err error
			res, err = s.assignHotel(ctx, key, program, byHotel[hotel])
			return err
		})
		if err != nil {
			return results, err
		}
		results = append(results, res)
		s.publish(ctx, key, res.Layout, "auto", res.Unassigned)
	}
	return results, nil
}

func (s *RoomingService) assignHotel(ctx context.Context, key LayoutKey, program *models.Program, members []models.Booking) (AssignmentResult, error) {
	current, err := s.Layouts.Load(ctx, key)
	if err != nil {
		return AssignmentResult{}, err
	}
	arena := NewRoomArena(current.Rooms)

	ids := make([]uint, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	arena.Vacate(ids)

	res := AssignmentResult{HotelName: key.HotelName, Placed: []uint{}, Unassigned: []models.Occupant{}}
	byType := GroupByRoomType(members, key.HotelName)
	for _, roomType := range sortedKeys(byType) {
		group := make([]models.Occupant, 0, len(byType[roomType]))
		for _, b := range byType[roomType] {
			group = append(group, b.Occupant())
		}
		capacity := CapacityFor(program, roomType)
		left, err := arena.Assign(roomType, group, capacity)
		if err != nil {
			return AssignmentResult{}, err
		}
		res.Unassigned = append(res.Unassigned, left...)
		for _, occ := range group {
			if !containsOccupant(left, occ.ID) {
				res.Placed = append(res.Placed, occ.ID)
			}
		}
	}

	saved, err := s.Layouts.Save(ctx, key, arena.Snapshot(), SaveOptions{LayoutID: current.ID})
	if err != nil {
		return AssignmentResult{}, err
	}
	res.Layout = saved
	log.Printf("✅ auto-assign %s: placed=%d unassigned=%d rooms=%d", key, len(res.Placed), len(res.Unassigned), len(saved.Rooms))
	return res, nil
}

// ManualSave stores rooms edited by hand. Vacant slots and empty rooms are dropped.
func (s *RoomingService) ManualSave(ctx context.Context, key LayoutKey, rooms []models.Room, opts SaveOptions) (Layout, error) {
	if err := key.Validate(); err != nil {
		return Layout{}, err
	}
	var saved Layout
	err := s.withLock(ctx, key, func() error {
		var err error
		saved, err = s.Layouts.Save(ctx, key, rooms, opts)
		return err
	})
	if err != nil {
		return Layout{}, err
	}
	s.publish(ctx, key, saved, "manual", nil)
	return saved, nil
}

// IsAssigned reports whether any of ids is placed in a room of the program. Callers check it
// before deleting a booking.
func (s *RoomingService) IsAssigned(ctx context.Context, userID, programID uint, ids []uint) (bool, error) {
	return s.Layouts.IsAnyAssigned(ctx, userID, programID, ids)
}

// SearchUnassigned finds bookings of the program that selected key.HotelName, match term on either
// client name and are not yet in that hotel's layout.
func (s *RoomingService) SearchUnassigned(ctx context.Context, key LayoutKey, term string) ([]UnassignedOccupant, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	assigned, err := s.Layouts.SearchAssignedIDs(ctx, key.UserID, key.ProgramID, key.HotelName)
	if err != nil {
		return nil, err
	}
	skip := make(map[uint]struct{}, len(assigned))
	for _, id := range assigned {
		skip[id] = struct{}{}
	}

	q := s.DB.WithContext(ctx).Where("user_id = ? AND trip_id = ?", key.UserID, key.ProgramID)
	if term = strings.ToLower(strings.TrimSpace(term)); term != "" {
		like := "%" + likeEscaper.Replace(term) + "%"
		q = q.Where("LOWER(client_name_ar) LIKE ? ESCAPE '!' OR LOWER(client_name_fr) LIKE ? ESCAPE '!'", like, like)
	}
	var bookings []models.Booking
	if err := q.Order("id ASC").Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("search bookings of program %d: %w", key.ProgramID, err)
	}

	out := []UnassignedOccupant{}
	for _, b := range bookings {
		if _, ok := skip[b.ID]; ok {
			continue
		}
		roomType := RoomTypeAt(b, key.HotelName)
		if roomType == "" {
			continue
		}
		out = append(out, UnassignedOccupant{Occupant: b.Occupant(), RoomType: roomType})
		if len(out) == searchResultLimit {
			break
		}
	}
	return out, nil
}

// loadProgram returns nil when the program is unknown; capacities then fall back to the default.
func (s *RoomingService) loadProgram(ctx context.Context, userID, programID uint) (*models.Program, error) {
	var program models.Program
	err := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", programID, userID).First(&program).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("⚠️ program %d not found for user %d, using default room capacities", programID, userID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load program %d: %w", programID, err)
	}
	return &program, nil
}

func (s *RoomingService) withLock(ctx context.Context, key LayoutKey, fn func() error) error {
	wait := s.LockWait
	if wait <= 0 {
		wait = defaultLockWait
	}
	lockCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	unlock, err := s.Locker.Lock(lockCtx, key.String())
	if err != nil {
		return err
	}
	defer unlock()
	return fn()
}

// publish is best effort: the layout is already committed.
func (s *RoomingService) publish(ctx context.Context, key LayoutKey, layout Layout, source string, unassigned []models.Occupant) {
	occupants := 0
	for _, r := range layout.Rooms {
		occupants += len(r.Occupants)
	}
	ev := RoomsAssignedEvent{
		UserID:     key.UserID,
		ProgramID:  key.ProgramID,
		HotelName:  key.HotelName,
		LayoutID:   layout.ID,
		Version:    layout.Version,
		Source:     source,
		Rooms:      len(layout.Rooms),
		Occupants:  occupants,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	for _, o := range unassigned {
		ev.Unassigned = append(ev.Unassigned, o.ID)
	}
	if err := s.Events.PublishRoomsAssigned(ctx, ev); err != nil {
		log.Printf("⚠️ publish %s for %s failed: %v", RoomsAssignedQueue, key, err)
	}
}

func containsOccupant(list []models.Occupant, id uint) bool {
	for _, o := range list {
		if o.ID == id {
			return true
		}
	}
	return false
}
