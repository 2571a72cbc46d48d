package log

import "go.uber.org/zap"

const (
	FieldNameModule    = "module"
	FieldNameComponent = "component"
	FieldNameSession   = "session"
	FieldNameRoom      = "room"
)

func FieldModule(module string) zap.Field {
	return zap.String(FieldNameModule, module)
}

func FieldComponent(component string) zap.Field {
	return zap.String(FieldNameComponent, component)
}

// FieldSession tags an entry with a session identifier.
func FieldSession(id string) zap.Field {
	return zap.String(FieldNameSession, id)
}

// FieldRoom tags an entry with a room name.
func FieldRoom(room string) zap.Field {
	return zap.String(FieldNameRoom, room)
}
