package domain

import (
	"time"

	"github.com/m04kA/SMC-SlotService/pkg/types"
)

// WeekDefinition anchor of a recurring weekly template, effective from
// DateOfApply until superseded
type WeekDefinition struct {
	ID          int64
	IDForm      int64
	DateOfApply time.Time

	// WorkingDays рабочие дни недели, подгружаются вместе с шаблонами
	WorkingDays []WorkingDay
}

// WorkingDayFor returns the working day matching the date's ISO day-of-week,
// or nil if the week definition has no entry for that day
func (w *WeekDefinition) WorkingDayFor(date time.Time) *WorkingDay {
	dow := ISODayOfWeek(date)
	for i := range w.WorkingDays {
		if w.WorkingDays[i].DayOfWeek == dow {
			return &w.WorkingDays[i]
		}
	}
	return nil
}

// WorkingDay a day of the weekly template with its ordered,
// non-overlapping TimeSlot templates
type WorkingDay struct {
	ID               int64
	IDWeekDefinition int64

	// DayOfWeek день недели по ISO: 1 = понедельник ... 7 = воскресенье
	DayOfWeek int

	TimeSlots []TimeSlotTemplate
}

// TemplateAt returns the template starting exactly at the given time cursor
func (d *WorkingDay) TemplateAt(cursor types.TimeString) *TimeSlotTemplate {
	for i := range d.TimeSlots {
		if d.TimeSlots[i].StartingTime == cursor {
			return &d.TimeSlots[i]
		}
	}
	return nil
}

// MinStartingTime returns the earliest template start of the day
func (d *WorkingDay) MinStartingTime() (types.TimeString, bool) {
	if len(d.TimeSlots) == 0 {
		return "", false
	}
	min := d.TimeSlots[0].StartingTime
	for _, ts := range d.TimeSlots[1:] {
		if ts.StartingTime.IsBefore(min) {
			min = ts.StartingTime
		}
	}
	return min, true
}

// MaxEndingTime returns the latest template end of the day
func (d *WorkingDay) MaxEndingTime() (types.TimeString, bool) {
	if len(d.TimeSlots) == 0 {
		return "", false
	}
	max := d.TimeSlots[0].EndingTime
	for _, ts := range d.TimeSlots[1:] {
		if ts.EndingTime.IsAfter(max) {
			max = ts.EndingTime
		}
	}
	return max, true
}

// TimeSlotTemplate recurring template from which concrete slots are
// synthesized absent a persisted override
type TimeSlotTemplate struct {
	ID           int64
	IDWorkingDay int64
	StartingTime types.TimeString
	EndingTime   types.TimeString
	IsOpen       bool
	MaxCapacity  int
}

// ClosingDay forces full closure for a single date, overriding the template
type ClosingDay struct {
	ID     int64
	IDForm int64
	Date   time.Time
}

// ISODayOfWeek возвращает день недели по ISO (1 = понедельник ... 7 = воскресенье)
func ISODayOfWeek(date time.Time) int {
	wd := int(date.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
