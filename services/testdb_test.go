package services

import (
	"fmt"
	"runtime"
	"strings"
	"testing"

	"hotel-rooming/models"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

/* ==================== SQLITE TEST DB ==================== */

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping sqlite test on windows because CGO is disabled")
	}

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.Program{}, &models.Booking{}, &models.RoomLayout{}))
	return db
}

/* ==================== FIXTURES ==================== */

type leg struct {
	city, hotel, roomType string
}

func makeBooking(t *testing.T, db *gorm.DB, b models.Booking, legs ...leg) models.Booking {
	t.Helper()
	b.SelectedHotel = jsonHotel(legs...)
	require.NoError(t, db.Create(&b).Error)
	return b
}

func jsonHotel(legs ...leg) datatypes.JSONType[models.SelectedHotel] {
	sel := models.SelectedHotel{}
	for _, l := range legs {
		sel.Cities = append(sel.Cities, l.city)
		sel.HotelNames = append(sel.HotelNames, l.hotel)
		sel.RoomTypes = append(sel.RoomTypes, l.roomType)
	}
	return datatypes.NewJSONType(sel)
}

func related(ids ...uint) datatypes.JSONSlice[models.RelatedPerson] {
	out := make(datatypes.JSONSlice[models.RelatedPerson], 0, len(ids))
	for _, id := range ids {
		out = append(out, models.RelatedPerson{ID: id})
	}
	return out
}

func guests(n int) *int { return &n }

func occupant(id uint, gender string) models.Occupant {
	return models.Occupant{ID: id, ClientName: fmt.Sprintf("client %d", id), Gender: gender}
}

// placedIDs lists every occupant id found in rooms, in room then slot order.
func placedIDs(rooms []*models.Room) []uint {
	var ids []uint
	for _, r := range rooms {
		for _, o := range r.Occupants {
			if o != nil {
				ids = append(ids, o.ID)
			}
		}
	}
	return ids
}
