package block

// BlockID представляет идентификатор типа блока
type BlockID uint16

// Константы ID блоков
const (
	EmptyBlockID  BlockID = iota // 0 — пустота, не рендерится
	GrassBlockID                 // 1 — верхний слой рельефа
	DirtBlockID                  // 2 — подповерхностный слой
	StoneBlockID                 // 3
	CoalBlockID                  // 4
	IronBlockID                  // 5
	TreeBlockID                  // 6 — ствол дерева
	LeavesBlockID                // 7
	CloudBlockID                 // 8
)

// IsEmpty возвращает true для пустого блока
func (id BlockID) IsEmpty() bool {
	return id == EmptyBlockID
}

// String возвращает имя типа блока
func (id BlockID) String() string {
	if d, ok := Get(id); ok {
		return d.Name
	}
	return "unknown"
}
