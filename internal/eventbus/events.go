package eventbus

import "github.com/google/uuid"

// Операции правки блока
const (
	OpAdd    = "add"
	OpRemove = "remove"
)

// BlockEdit — полезная нагрузка BlockEdited
type BlockEdit struct {
	Op    string `json:"op"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Z     int    `json:"z"`
	Block uint16 `json:"block"`
}

// SaveEvent — полезная нагрузка WorldSaved и WorldLoaded
type SaveEvent struct {
	SaveID uuid.UUID `json:"save_id"`
	Edits  int       `json:"edits"`
}

// ParamsEvent — полезная нагрузка ParamsChanged
type ParamsEvent struct {
	Seed int64 `json:"seed"`
}
