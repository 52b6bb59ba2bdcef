package wavecollapse

// Direction is one of the four cardinal neighbours of a cell.
type Direction uint8

const (
	North Direction = iota
	East
	South
	West
)

// Directions lists every direction in table order.
var Directions = [4]Direction{North, East, South, West}

// Opposite returns the direction pointing back.
func (d Direction) Opposite() Direction { return (d + 2) & 3 }

// Offset returns the grid step (dx, dy) for d. North is -y.
func (d Direction) Offset() (int, int) {
	switch d {
	case North:
		return 0, -1
	case East:
		return 1, 0
	case South:
		return 0, 1
	default:
		return -1, 0
	}
}

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	default:
		return "unknown"
	}
}
