package eventhooks

// SlotEvent тело уведомления об изменении слота
type SlotEvent struct {
	Event  string `json:"event"`
	IDSlot int64  `json:"id_slot"`
}

// Типы событий слота
const (
	EventSlotCreated = "slot.created"
	EventSlotChanged = "slot.changed"
	EventSlotRemoved = "slot.removed"
)

// Logger интерфейс для логирования
type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
