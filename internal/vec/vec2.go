package vec

// Vec2 представляет целочисленные координаты на плоскости XZ.
// Используется как координата чанка: X — ось X, Y — ось Z мира.
type Vec2 struct {
	X, Y int
}

// FloorDiv делит с округлением вниз (корректно для отрицательных координат)
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// FloorMod возвращает неотрицательный остаток от деления
func FloorMod(a, b int) int {
	return a - FloorDiv(a, b)*b
}

// ChebyshevTo возвращает расстояние Чебышёва до другой точки
func (v Vec2) ChebyshevTo(other Vec2) int {
	dx := v.X - other.X
	if dx < 0 {
		dx = -dx
	}
	dy := v.Y - other.Y
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}
