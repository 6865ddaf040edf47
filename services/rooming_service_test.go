package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"hotel-rooming/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []RoomsAssignedEvent
	err    error
}

func (p *recordingPublisher) PublishRoomsAssigned(_ context.Context, ev RoomsAssignedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) recorded() []RoomsAssignedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]RoomsAssignedEvent(nil), p.events...)
}

// seedProgram creates program 3 of user 7 with a family of three (1 leads 2 and 3), a female single
// and a single without gender.
func seedProgram(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Create(&models.Program{
		ID: 3, UserID: 7, Name: "Umrah Ramadan",
		Packages: []models.Package{{Prices: []models.PriceStructure{{
			HotelCombination: "Hilton_Oberoi",
			RoomTypes: []models.RoomTypeDef{
				{Type: "Double", Guests: guests(2)},
				{Type: "Triple", Guests: guests(3)},
			},
		}}}},
	}).Error)

	hilton := func(roomType string) leg { return leg{"Makkah", "Hilton", roomType} }
	oberoi := func(roomType string) leg { return leg{"Madinah", "Oberoi", roomType} }

	makeBooking(t, db, models.Booking{ID: 1, UserID: 7, TripID: 3, ClientNameAr: "أحمد", ClientNameFr: "Ahmed", Gender: "male",
		RelatedPersons: related(2, 3)}, hilton("Double"), oberoi("Triple"))
	makeBooking(t, db, models.Booking{ID: 2, UserID: 7, TripID: 3, ClientNameFr: "Khadija", Gender: "female"},
		hilton("Double"), oberoi("Triple"))
	makeBooking(t, db, models.Booking{ID: 3, UserID: 7, TripID: 3, ClientNameFr: "Youssef", Gender: "male"},
		hilton("Triple"), oberoi("Triple"))
	makeBooking(t, db, models.Booking{ID: 4, UserID: 7, TripID: 3, ClientNameFr: "Fatima Zahra", Gender: "female"},
		hilton("Double"))
	makeBooking(t, db, models.Booking{ID: 5, UserID: 7, TripID: 3, ClientNameFr: "Unknown Person"},
		hilton("Double"))
	makeBooking(t, db, models.Booking{ID: 6, UserID: 7, TripID: 3, ClientNameFr: "Fatima Oberoi", Gender: "female"},
		oberoi("Triple"))
}

func newTestRoomingService(t *testing.T) (*RoomingService, *recordingPublisher) {
	t.Helper()
	db := testDB(t)
	seedProgram(t, db)
	events := &recordingPublisher{}
	return NewRoomingService(db, NewLocalLocker(), events), events
}

func roomIDs(r models.Room) []uint {
	var ids []uint
	for _, o := range r.Occupants {
		ids = append(ids, o.ID)
	}
	return ids
}

func TestAutoAssign_FamilyAcrossHotels(t *testing.T) {
	svc, events := newTestRoomingService(t)
	ctx := context.Background()

	results, err := svc.AutoAssign(ctx, 7, 3, "", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	hilton := results[0]
	assert.Equal(t, "Hilton", hilton.HotelName)
	require.NotNil(t, hilton.Layout.ID)
	require.Len(t, hilton.Layout.Rooms, 2)
	assert.Equal(t, "Double 1", hilton.Layout.Rooms[0].Name)
	assert.Equal(t, []uint{1, 2}, roomIDs(hilton.Layout.Rooms[0]))
	assert.Equal(t, "Triple 1", hilton.Layout.Rooms[1].Name)
	assert.Equal(t, []uint{3}, roomIDs(hilton.Layout.Rooms[1]))
	assert.ElementsMatch(t, []uint{1, 2, 3}, hilton.Placed)
	assert.Empty(t, hilton.Unassigned)

	oberoi := results[1]
	assert.Equal(t, "Oberoi", oberoi.HotelName)
	require.Len(t, oberoi.Layout.Rooms, 1)
	assert.Equal(t, []uint{1, 2, 3}, roomIDs(oberoi.Layout.Rooms[0]))

	got := events.recorded()
	require.Len(t, got, 2)
	assert.Equal(t, "auto", got[0].Source)
	assert.Equal(t, "Hilton", got[0].HotelName)
	assert.Equal(t, 3, got[0].Occupants)
}

func TestAutoAssign_RerunMovesInsteadOfDuplicating(t *testing.T) {
	svc, _ := newTestRoomingService(t)
	ctx := context.Background()

	first, err := svc.AutoAssign(ctx, 7, 3, "Hilton", 1)
	require.NoError(t, err)
	second, err := svc.AutoAssign(ctx, 7, 3, "Hilton", 1)
	require.NoError(t, err)

	require.Len(t, second, 1)
	assert.Equal(t, *first[0].Layout.ID, *second[0].Layout.ID)
	assert.Equal(t, first[0].Layout.Version+1, second[0].Layout.Version)
	assert.Equal(t, first[0].Layout.Rooms, second[0].Layout.Rooms)

	ids, err := svc.Layouts.SearchAssignedIDs(ctx, 7, 3, "Hilton")
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2, 3}, ids)
}

func TestAutoAssign_HotelFilter(t *testing.T) {
	svc, _ := newTestRoomingService(t)

	results, err := svc.AutoAssign(context.Background(), 7, 3, "Oberoi", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Oberoi", results[0].HotelName)

	layout, err := svc.GetLayout(context.Background(), LayoutKey{UserID: 7, ProgramID: 3, HotelName: "Hilton"})
	require.NoError(t, err)
	assert.Nil(t, layout.ID)
}

func TestAutoAssign_SinglesShareRoomsByGender(t *testing.T) {
	svc, _ := newTestRoomingService(t)
	ctx := context.Background()

	_, err := svc.AutoAssign(ctx, 7, 3, "", 1)
	require.NoError(t, err)
	results, err := svc.AutoAssign(ctx, 7, 3, "", 6)
	require.NoError(t, err)

	// the Oberoi family room is full, so the single gets a new room
	require.Len(t, results, 1)
	rooms := results[0].Layout.Rooms
	require.Len(t, rooms, 2)
	assert.Equal(t, "Triple 2", rooms[1].Name)
	assert.Equal(t, []uint{6}, roomIDs(rooms[1]))
}

func TestAutoAssign_UnknownGenderIsReported(t *testing.T) {
	svc, events := newTestRoomingService(t)

	results, err := svc.AutoAssign(context.Background(), 7, 3, "", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Placed)
	require.Len(t, results[0].Unassigned, 1)
	assert.Equal(t, uint(5), results[0].Unassigned[0].ID)
	assert.Nil(t, results[0].Layout.ID)

	got := events.recorded()
	require.Len(t, got, 1)
	assert.Equal(t, []uint{5}, got[0].Unassigned)
}

func TestAutoAssign_MissingBookingOrProgram(t *testing.T) {
	svc, _ := newTestRoomingService(t)
	ctx := context.Background()

	results, err := svc.AutoAssign(ctx, 7, 3, "", 999)
	require.NoError(t, err)
	assert.Empty(t, results)

	// unknown program: capacities fall back to two per room
	oberoi := leg{"Madinah", "Oberoi", "Triple"}
	makeBooking(t, svc.DB, models.Booking{ID: 30, UserID: 7, TripID: 77, Gender: "male", RelatedPersons: related(31, 32)}, oberoi)
	makeBooking(t, svc.DB, models.Booking{ID: 31, UserID: 7, TripID: 77, Gender: "female"}, oberoi)
	makeBooking(t, svc.DB, models.Booking{ID: 32, UserID: 7, TripID: 77, Gender: "male"}, oberoi)
	results, err = svc.AutoAssign(ctx, 7, 77, "Oberoi", 30)
	require.NoError(t, err)
	require.Len(t, results, 1)
	rooms := results[0].Layout.Rooms
	require.Len(t, rooms, 2)
	assert.Equal(t, 2, rooms[0].Capacity)
	assert.Equal(t, []uint{30, 32}, roomIDs(rooms[0]))
	assert.Equal(t, []uint{31}, roomIDs(rooms[1]))
}

func TestAutoAssign_BookingOfAnotherProgram(t *testing.T) {
	svc, events := newTestRoomingService(t)
	ctx := context.Background()

	// booking 4 belongs to program 3; assigning it under program 99 must not create rooms there
	results, err := svc.AutoAssign(ctx, 7, 99, "Hilton", 4)
	require.NoError(t, err)
	assert.Empty(t, results)

	rows, err := svc.ListLayouts(ctx, 7, 99)
	require.NoError(t, err)
	assert.Empty(t, rows)
	ok, err := svc.IsAssigned(ctx, 7, 3, []uint{4})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, events.recorded())
}

func TestAutoAssign_InvalidCapacity(t *testing.T) {
	svc, events := newTestRoomingService(t)
	db := svc.DB
	require.NoError(t, db.Create(&models.Program{
		ID: 9, UserID: 7,
		Packages: []models.Package{{Prices: []models.PriceStructure{{
			RoomTypes: []models.RoomTypeDef{{Type: "Quad", Guests: guests(0)}},
		}}}},
	}).Error)
	makeBooking(t, db, models.Booking{ID: 20, UserID: 7, TripID: 9, Gender: "male"}, leg{"Makkah", "Hilton", "Quad"})

	_, err := svc.AutoAssign(context.Background(), 7, 9, "", 20)
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	rows, err := svc.ListLayouts(context.Background(), 7, 9)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Empty(t, events.recorded())
}

func TestAutoAssign_PublishFailureDoesNotFail(t *testing.T) {
	svc, events := newTestRoomingService(t)
	events.err = errors.New("broker down")

	results, err := svc.AutoAssign(context.Background(), 7, 3, "Hilton", 4)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.NotNil(t, results[0].Layout.ID)
}

func TestManualSave(t *testing.T) {
	svc, events := newTestRoomingService(t)
	ctx := context.Background()
	key := LayoutKey{UserID: 7, ProgramID: 3, HotelName: "Hilton"}

	_, err := svc.AutoAssign(ctx, 7, 3, "Hilton", 1)
	require.NoError(t, err)
	current, err := svc.GetLayout(ctx, key)
	require.NoError(t, err)

	// move the son into the parents' room by hand, leaving a vacant slot behind
	rooms := current.Rooms
	rooms[1].Occupants = []*models.Occupant{nil}
	rooms = append(rooms, models.Room{Name: "Family", Type: "Quad", Capacity: 4, Occupants: []*models.Occupant{
		{ID: 3, ClientName: "Youssef", Gender: "male"}, nil, nil, nil,
	}})

	saved, err := svc.ManualSave(ctx, key, rooms, SaveOptions{LayoutID: current.ID, Version: &current.Version})
	require.NoError(t, err)
	require.Len(t, saved.Rooms, 2)
	assert.Equal(t, "Family", saved.Rooms[1].Name)
	assert.Equal(t, current.Version+1, saved.Version)

	_, err = svc.ManualSave(ctx, key, rooms, SaveOptions{LayoutID: current.ID, Version: &current.Version})
	assert.ErrorIs(t, err, ErrConcurrentModification)

	got := events.recorded()
	require.Len(t, got, 2)
	assert.Equal(t, "manual", got[1].Source)

	_, err = svc.ManualSave(ctx, LayoutKey{UserID: 7, ProgramID: 3}, rooms, SaveOptions{})
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestIsAssigned(t *testing.T) {
	svc, _ := newTestRoomingService(t)
	ctx := context.Background()

	ok, err := svc.IsAssigned(ctx, 7, 3, []uint{1})
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.AutoAssign(ctx, 7, 3, "Oberoi", 1)
	require.NoError(t, err)

	ok, err = svc.IsAssigned(ctx, 7, 3, []uint{4, 2})
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = svc.IsAssigned(ctx, 7, 4, []uint{2})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSearchUnassigned(t *testing.T) {
	svc, _ := newTestRoomingService(t)
	ctx := context.Background()
	key := LayoutKey{UserID: 7, ProgramID: 3, HotelName: "Hilton"}

	_, err := svc.AutoAssign(ctx, 7, 3, "Hilton", 1)
	require.NoError(t, err)

	hits, err := svc.SearchUnassigned(ctx, key, "")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, uint(4), hits[0].ID)
	assert.Equal(t, "Double", hits[0].RoomType)
	assert.Equal(t, uint(5), hits[1].ID)

	hits, err = svc.SearchUnassigned(ctx, key, "  FATIMA ")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Fatima Zahra", hits[0].ClientName)

	hits, err = svc.SearchUnassigned(ctx, LayoutKey{UserID: 7, ProgramID: 3, HotelName: "Oberoi"}, "fatima")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, uint(6), hits[0].ID)

	hits, err = svc.SearchUnassigned(ctx, key, "nobody")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchUnassigned_WildcardsAreLiteral(t *testing.T) {
	svc, _ := newTestRoomingService(t)
	ctx := context.Background()
	key := LayoutKey{UserID: 7, ProgramID: 3, HotelName: "Hilton"}

	hilton := leg{"Makkah", "Hilton", "Double"}
	makeBooking(t, svc.DB, models.Booking{ID: 40, UserID: 7, TripID: 3, ClientNameFr: "100% Halal", Gender: "male"}, hilton)
	makeBooking(t, svc.DB, models.Booking{ID: 41, UserID: 7, TripID: 3, ClientNameFr: "1000 Halal", Gender: "male"}, hilton)
	makeBooking(t, svc.DB, models.Booking{ID: 42, UserID: 7, TripID: 3, ClientNameFr: "Bang!", Gender: "male"}, hilton)

	hits, err := svc.SearchUnassigned(ctx, key, "100%")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, uint(40), hits[0].ID)

	hits, err = svc.SearchUnassigned(ctx, key, "_")
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = svc.SearchUnassigned(ctx, key, "g!")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, uint(42), hits[0].ID)
}
