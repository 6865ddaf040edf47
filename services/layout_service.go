package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"hotel-rooming/models"

	mysql "github.com/go-sql-driver/mysql"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LayoutKey identifies one stored layout.
type LayoutKey struct {
	UserID    uint
	ProgramID uint
	HotelName string
}

func (k LayoutKey) Validate() error {
	if k.UserID == 0 || k.ProgramID == 0 || strings.TrimSpace(k.HotelName) == "" {
		return fmt.Errorf("%w: user=%d program=%d hotel=%q", ErrInvalidKey, k.UserID, k.ProgramID, k.HotelName)
	}
	return nil
}

// String is the lock name of the key.
func (k LayoutKey) String() string {
	return fmt.Sprintf("room-layout:%d:%d:%s", k.UserID, k.ProgramID, k.HotelName)
}

// Layout is what callers see of a stored layout. ID is nil when nothing is stored yet.
type Layout struct {
	ID      *uint         `json:"id"`
	Version int           `json:"version"`
	Rooms   []models.Room `json:"rooms"`
}

func emptyLayout() Layout {
	return Layout{ID: nil, Rooms: []models.Room{}}
}

// SaveOptions carries what the caller knows about the row it edited.
// Version, when set, must match the stored version or the save fails with ErrConcurrentModification.
type SaveOptions struct {
	LayoutID *uint
	Version  *int
}

// LayoutService persists room layouts.
type LayoutService struct {
	DB *gorm.DB
}

func NewLayoutService(db *gorm.DB) *LayoutService {
	return &LayoutService{DB: db}
}

// Load returns the stored layout for key, or an empty layout.
func (s *LayoutService) Load(ctx context.Context, key LayoutKey) (Layout, error) {
	if err := key.Validate(); err != nil {
		return Layout{}, err
	}
	var row models.RoomLayout
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND program_id = ? AND hotel_name = ?", key.UserID, key.ProgramID, key.HotelName).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return emptyLayout(), nil
	}
	if err != nil {
		return Layout{}, fmt.Errorf("load layout %s: %w", key, err)
	}
	return toLayout(row), nil
}

// Save sanitizes rooms and writes them in one transaction. A layout left without any occupant is
// deleted and an empty layout is returned.
func (s *LayoutService) Save(ctx context.Context, key LayoutKey, rooms []models.Room, opts SaveOptions) (Layout, error) {
	if err := key.Validate(); err != nil {
		return Layout{}, err
	}
	clean := SanitizeRooms(rooms)

	var saved models.RoomLayout
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(clean) == 0 {
			return deleteLayout(tx, key, opts)
		}
		if opts.LayoutID != nil {
			return updateLayoutByID(tx, key, clean, opts, &saved)
		}
		return upsertLayoutByKey(tx, key, clean, opts, &saved)
	})
	if err != nil {
		if errors.Is(err, ErrConcurrentModification) {
			return Layout{}, err
		}
		return Layout{}, fmt.Errorf("save layout %s: %w", key, err)
	}
	if len(clean) == 0 {
		return emptyLayout(), nil
	}
	return toLayout(saved), nil
}

func deleteLayout(tx *gorm.DB, key LayoutKey, opts SaveOptions) error {
	q := tx.Where("user_id = ? AND program_id = ? AND hotel_name = ?", key.UserID, key.ProgramID, key.HotelName)
	if opts.LayoutID != nil {
		q = q.Where("id = ?", *opts.LayoutID)
	}
	if opts.Version != nil {
		q = q.Where("version = ?", *opts.Version)
	}
	res := q.Delete(&models.RoomLayout{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 && opts.LayoutID != nil {
		// a row still carrying the id belongs to another key and is left alone
		var other int64
		if err := tx.Model(&models.RoomLayout{}).Where("id = ?", *opts.LayoutID).Count(&other).Error; err != nil {
			return err
		}
		if other > 0 {
			return fmt.Errorf("%w: layout %d does not belong to %s", ErrConcurrentModification, *opts.LayoutID, key)
		}
	}
	if res.RowsAffected == 0 && opts.Version != nil {
		// nothing deleted: either already gone (fine) or edited since the caller read it
		var count int64
		if err := tx.Model(&models.RoomLayout{}).
			Where("user_id = ? AND program_id = ? AND hotel_name = ?", key.UserID, key.ProgramID, key.HotelName).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: layout %s changed before delete", ErrConcurrentModification, key)
		}
	}
	return nil
}

func updateLayoutByID(tx *gorm.DB, key LayoutKey, rooms []models.Room, opts SaveOptions, out *models.RoomLayout) error {
	q := tx.Model(&models.RoomLayout{}).
		Where("id = ? AND user_id = ? AND program_id = ? AND hotel_name = ?", *opts.LayoutID, key.UserID, key.ProgramID, key.HotelName)
	if opts.Version != nil {
		q = q.Where("version = ?", *opts.Version)
	}
	res := q.Updates(map[string]any{
		"rooms":   datatypes.JSONSlice[models.Room](rooms),
		"version": gorm.Expr("version + 1"),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: layout %d of %s was removed or edited", ErrConcurrentModification, *opts.LayoutID, key)
	}
	id := *opts.LayoutID
	*out = models.RoomLayout{}
	return tx.First(out, id).Error
}

func upsertLayoutByKey(tx *gorm.DB, key LayoutKey, rooms []models.Room, opts SaveOptions, out *models.RoomLayout) error {
	err := tx.Where("user_id = ? AND program_id = ? AND hotel_name = ?", key.UserID, key.ProgramID, key.HotelName).
		First(out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if opts.Version != nil && *opts.Version != 0 {
			return fmt.Errorf("%w: layout %s no longer exists", ErrConcurrentModification, key)
		}
		*out = models.RoomLayout{
			UserID:    key.UserID,
			ProgramID: key.ProgramID,
			HotelName: key.HotelName,
			Rooms:     rooms,
			Version:   1,
		}
		if err := tx.Create(out).Error; err != nil {
			if isDuplicateKey(err) {
				return fmt.Errorf("%w: layout %s created concurrently", ErrConcurrentModification, key)
			}
			return err
		}
		return nil
	}
	if err != nil {
		return err
	}
	if opts.Version != nil && *opts.Version != out.Version {
		return fmt.Errorf("%w: layout %s is at version %d, caller had %d", ErrConcurrentModification, key, out.Version, *opts.Version)
	}
	id := out.ID
	return updateLayoutByID(tx, key, rooms, SaveOptions{LayoutID: &id, Version: &out.Version}, out)
}

// LoadAllForProgram returns every stored layout of the program, ordered by hotel name.
func (s *LayoutService) LoadAllForProgram(ctx context.Context, userID, programID uint) ([]models.RoomLayout, error) {
	var rows []models.RoomLayout
	if err := s.DB.WithContext(ctx).
		Where("user_id = ? AND program_id = ?", userID, programID).
		Order("hotel_name ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load layouts of program %d: %w", programID, err)
	}
	return rows, nil
}

// IsAnyAssigned reports whether any of ids sits in a room of any hotel of the program.
func (s *LayoutService) IsAnyAssigned(ctx context.Context, userID, programID uint, ids []uint) (bool, error) {
	if len(ids) == 0 {
		return false, nil
	}
	assigned, err := s.assignedSet(ctx, userID, programID, "")
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if _, ok := assigned[id]; ok {
			return true, nil
		}
	}
	return false, nil
}

// SearchAssignedIDs lists the occupant ids placed in hotelName's layout, or in every layout of the
// program when hotelName is empty.
func (s *LayoutService) SearchAssignedIDs(ctx context.Context, userID, programID uint, hotelName string) ([]uint, error) {
	assigned, err := s.assignedSet(ctx, userID, programID, hotelName)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(assigned))
	for id := range assigned {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *LayoutService) assignedSet(ctx context.Context, userID, programID uint, hotelName string) (map[uint]struct{}, error) {
	q := s.DB.WithContext(ctx).Where("user_id = ? AND program_id = ?", userID, programID)
	if hotelName != "" {
		q = q.Where("hotel_name = ?", hotelName)
	}
	var rows []models.RoomLayout
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load assigned occupants of program %d: %w", programID, err)
	}
	out := map[uint]struct{}{}
	for _, row := range rows {
		for _, room := range row.Rooms {
			for _, o := range room.Occupants {
				if o != nil {
					out[o.ID] = struct{}{}
				}
			}
		}
	}
	return out, nil
}

// SanitizeRooms drops vacant slots, then drops rooms left without occupants.
func SanitizeRooms(rooms []models.Room) []models.Room {
	out := make([]models.Room, 0, len(rooms))
	for _, r := range rooms {
		occupants := make([]*models.Occupant, 0, len(r.Occupants))
		for _, o := range r.Occupants {
			if o != nil {
				occ := *o
				occupants = append(occupants, &occ)
			}
		}
		if len(occupants) == 0 {
			continue
		}
		out = append(out, models.Room{Name: r.Name, Type: r.Type, Capacity: r.Capacity, Occupants: occupants})
	}
	return out
}

func toLayout(row models.RoomLayout) Layout {
	id := row.ID
	rooms := []models.Room(row.Rooms)
	if rooms == nil {
		rooms = []models.Room{}
	}
	return Layout{ID: &id, Version: row.Version, Rooms: rooms}
}

// isDuplicateKey relies on gorm's TranslateError; the raw MySQL 1062 check covers a db opened without it.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
