package physics

import (
	"math"
	"sort"

	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/go-gl/mathgl/mgl64"
)

// BlockSource — источник блоков для коллизий. false означает "блока нет":
// незагруженный чанк или координата вне мира.
type BlockSource interface {
	GetBlock(x, y, z int) (block.BlockID, bool)
}

// Contact описывает пересечение цилиндра игрока с блоком
type Contact struct {
	Block   vec.Vec3   // координаты блока (центр единичного куба)
	Point   mgl64.Vec3 // ближайшая к оси цилиндра точка куба
	Normal  mgl64.Vec3 // направление выталкивания игрока
	Overlap float64    // глубина проникновения вдоль Normal
}

// broadPhase собирает непустые блоки в целочисленном AABB цилиндра
func broadPhase(p *Player, src BlockSource) []vec.Vec3 {
	minX, minY, minZ, maxX, maxY, maxZ := p.bounds()

	var candidates []vec.Vec3
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				id, ok := src.GetBlock(x, y, z)
				if ok && !id.IsEmpty() {
					candidates = append(candidates, vec.Vec3{X: x, Y: y, Z: z})
				}
			}
		}
	}
	return candidates
}

// closestPoint возвращает точку куба, ближайшую к центру оси цилиндра
func closestPoint(b vec.Vec3, center mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{
		mgl64.Clamp(center.X(), float64(b.X)-0.5, float64(b.X)+0.5),
		mgl64.Clamp(center.Y(), float64(b.Y)-0.5, float64(b.Y)+0.5),
		mgl64.Clamp(center.Z(), float64(b.Z)-0.5, float64(b.Z)+0.5),
	}
}

// narrowPhase отбирает кандидатов, чья ближайшая точка лежит внутри цилиндра.
// Нормаль берётся по оси с меньшим перекрытием.
func narrowPhase(p *Player, candidates []vec.Vec3) []Contact {
	center := p.AxisCenter()

	var contacts []Contact
	for _, b := range candidates {
		point := closestPoint(b, center)
		if !p.contains(point) {
			continue
		}

		dx := point.X() - center.X()
		dy := point.Y() - center.Y()
		dz := point.Z() - center.Z()

		overlapY := p.HalfHeight() - math.Abs(dy)
		overlapXZ := p.Radius - math.Hypot(dx, dz)

		var c Contact
		radial := math.Hypot(dx, dz)
		// Точка на оси цилиндра не задаёт горизонтального направления
		if overlapY < overlapXZ || radial == 0 {
			ny := -sign(dy)
			if ny == 0 {
				ny = 1 // ось внутри блока: выталкиваем вверх
			}
			c = Contact{Normal: mgl64.Vec3{0, ny, 0}, Overlap: overlapY}
			// Опора снизу выталкивает вверх
			if ny > 0 {
				p.OnGround = true
			}
		} else {
			n := mgl64.Vec3{-dx / radial, 0, -dz / radial}
			c = Contact{Normal: n, Overlap: overlapXZ}
		}
		c.Block = b
		c.Point = point
		contacts = append(contacts, c)
	}
	return contacts
}

// resolve разрешает контакты по возрастанию перекрытия. Каждый контакт
// перепроверяется, так как предыдущие уже сдвинули игрока.
func resolve(p *Player, contacts []Contact) int {
	sort.SliceStable(contacts, func(i, j int) bool {
		return contacts[i].Overlap < contacts[j].Overlap
	})

	resolved := 0
	for _, c := range contacts {
		if !p.contains(c.Point) {
			continue
		}
		p.Position = p.Position.Add(c.Normal.Mul(c.Overlap))

		magnitude := p.WorldVelocity().Dot(c.Normal)
		p.ApplyWorldDeltaVelocity(c.Normal.Mul(-magnitude))
		resolved++
	}
	return resolved
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
