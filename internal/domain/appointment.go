package domain

import "time"

// Appointment the booking record linked to a committed slot
// Создаётся в одной транзакции с обновлением счётчиков слота
type Appointment struct {
	ID        int64
	IDSlot    int64
	IDForm    int64
	IDUser    int64
	NbPlaces  int
	StartTime time.Time
	EndTime   time.Time
	Notes     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BookingDraft input for committing a booking against a slot
type BookingDraft struct {
	IDSlot   int64
	IDForm   int64
	IDUser   int64
	NbPlaces int
	Notes    *string

	// HoldToken токен удержания, если бронированию предшествовал placeHold
	HoldToken *string

	// AllowOverbooking разрешает явный овербукинг: nbPlacesTaken может
	// превысить maxCapacity слота
	AllowOverbooking bool
}
