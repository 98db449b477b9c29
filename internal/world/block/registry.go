package block

import "sort"

// Descriptor описывает тип блока для рендера и UI
type Descriptor struct {
	ID    BlockID
	Name  string
	Color string // цвет по умолчанию, используется рендером как подсказка
}

var registry = make(map[BlockID]Descriptor)

func init() {
	Register(Descriptor{ID: EmptyBlockID, Name: "empty"})
	Register(Descriptor{ID: GrassBlockID, Name: "grass", Color: "#559020"})
	Register(Descriptor{ID: DirtBlockID, Name: "dirt", Color: "#807020"})
	Register(Descriptor{ID: StoneBlockID, Name: "stone", Color: "#808080"})
	Register(Descriptor{ID: CoalBlockID, Name: "coal", Color: "#202020"})
	Register(Descriptor{ID: IronBlockID, Name: "iron", Color: "#806060"})
	Register(Descriptor{ID: TreeBlockID, Name: "tree", Color: "#6b4a2b"})
	Register(Descriptor{ID: LeavesBlockID, Name: "leaves", Color: "#2f7a1f"})
	Register(Descriptor{ID: CloudBlockID, Name: "cloud", Color: "#f0f0f0"})
}

// Register добавляет тип блока в регистр
func Register(d Descriptor) {
	registry[d.ID] = d
}

// Get возвращает описание для указанного ID
func Get(id BlockID) (Descriptor, bool) {
	d, exists := registry[id]
	return d, exists
}

// IsValidBlockID проверяет, является ли ID допустимым идентификатором блока
func IsValidBlockID(id BlockID) bool {
	_, exists := registry[id]
	return exists
}

// Solid возвращает все непустые типы блоков в порядке возрастания ID
func Solid() []Descriptor {
	result := make([]Descriptor, 0, len(registry))
	for id, d := range registry {
		if id.IsEmpty() {
			continue
		}
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}
