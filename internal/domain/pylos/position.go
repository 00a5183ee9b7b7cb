package pylos

import "fmt"

// Player is the owner of a ball. White always moves first.
type Player uint8

const (
	White Player = 0
	Black Player = 1
)

func (p Player) Opponent() Player {
	if p == White {
		return Black
	}
	return White
}

func (p Player) String() string {
	if p == White {
		return "white"
	}
	return "black"
}

// Region is the part of the board a coordinate belongs to.
type Region uint8

const (
	ReserveWhite Region = 0
	ReserveBlack Region = 1
	Pyramid      Region = 2
)

// ReserveOf returns the reserve region that holds balls of player p.
func ReserveOf(p Player) Region {
	if p == White {
		return ReserveWhite
	}
	return ReserveBlack
}

const (
	ReserveWidth  = 5
	ReserveHeight = 3
	ReserveSize   = ReserveWidth * ReserveHeight
	Levels        = 4
	PyramidSize   = 16 + 9 + 4 + 1
	CellCount     = 2*ReserveSize + PyramidSize
	BallsPerSide  = ReserveSize
	ApexLevel     = Levels - 1
)

var levelOffset = [Levels]int{
	2 * ReserveSize,
	2*ReserveSize + 16,
	2*ReserveSize + 16 + 9,
	2*ReserveSize + 16 + 9 + 4,
}

type Coord struct {
	Region Region `json:"region"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Z      int    `json:"z"`
}

func ReserveCoord(p Player, x, y int) Coord {
	return Coord{Region: ReserveOf(p), X: x, Y: y}
}

func PyramidCoord(x, y, z int) Coord {
	return Coord{Region: Pyramid, X: x, Y: y, Z: z}
}

// LevelSize is the width of pyramid level z.
func LevelSize(z int) int {
	return Levels - z
}

// Index maps c into the dense cell space [0, CellCount).
func (c Coord) Index() (int, bool) {
	switch c.Region {
	case ReserveWhite, ReserveBlack:
		if c.Z != 0 || c.X < 0 || c.X >= ReserveWidth || c.Y < 0 || c.Y >= ReserveHeight {
			return 0, false
		}
		return int(c.Region)*ReserveSize + c.Y*ReserveWidth + c.X, true
	case Pyramid:
		if c.Z < 0 || c.Z >= Levels {
			return 0, false
		}
		size := LevelSize(c.Z)
		if c.X < 0 || c.X >= size || c.Y < 0 || c.Y >= size {
			return 0, false
		}
		return levelOffset[c.Z] + c.Y*size + c.X, true
	}
	return 0, false
}

func (c Coord) Valid() bool {
	_, ok := c.Index()
	return ok
}

func (c Coord) IsApex() bool {
	return c.Region == Pyramid && c.Z == ApexLevel
}

func (c Coord) String() string {
	switch c.Region {
	case ReserveWhite:
		return fmt.Sprintf("rw(%d,%d)", c.X, c.Y)
	case ReserveBlack:
		return fmt.Sprintf("rb(%d,%d)", c.X, c.Y)
	}
	return fmt.Sprintf("p(%d,%d,%d)", c.X, c.Y, c.Z)
}

// Ball serializes flat: {"region","x","y","z","owner"}.
type Ball struct {
	Owner Player `json:"owner"`
	Coord
}

func (b Ball) String() string {
	return fmt.Sprintf("%s@%s", b.Owner, b.Coord)
}

type Move struct {
	From Ball `json:"from"`
	To   Ball `json:"to"`
}

func NewMove(p Player, from, to Coord) Move {
	return Move{From: Ball{Owner: p, Coord: from}, To: Ball{Owner: p, Coord: to}}
}

func (m Move) String() string {
	return fmt.Sprintf("[%s: %s => %s]", m.From.Owner, m.From.Coord, m.To.Coord)
}

// Cell relations are derived from coordinates once; nothing stores edges between balls.
var (
	coords   [CellCount]Coord
	parents  [CellCount][]int // the 2x2 block a pyramid cell rests on
	children [CellCount][]int // pyramid cells resting on this one
)

func init() {
	for r := ReserveWhite; r <= ReserveBlack; r++ {
		for y := 0; y < ReserveHeight; y++ {
			for x := 0; x < ReserveWidth; x++ {
				c := Coord{Region: r, X: x, Y: y}
				i, _ := c.Index()
				coords[i] = c
			}
		}
	}
	for z := 0; z < Levels; z++ {
		size := LevelSize(z)
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				c := PyramidCoord(x, y, z)
				i, _ := c.Index()
				coords[i] = c
				if z == 0 {
					continue
				}
				for dy := 0; dy <= 1; dy++ {
					for dx := 0; dx <= 1; dx++ {
						p, _ := PyramidCoord(x+dx, y+dy, z-1).Index()
						parents[i] = append(parents[i], p)
						children[p] = append(children[p], i)
					}
				}
			}
		}
	}
}

// CoordAt is the inverse of Coord.Index.
func CoordAt(i int) Coord {
	return coords[i]
}

func pyramidStart() int {
	return levelOffset[0]
}

func reserveRange(p Player) (int, int) {
	start := int(ReserveOf(p)) * ReserveSize
	return start, start + ReserveSize
}

func restsOn(upper, lower int) bool {
	for _, p := range parents[upper] {
		if p == lower {
			return true
		}
	}
	return false
}
