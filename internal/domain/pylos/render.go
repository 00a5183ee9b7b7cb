package pylos

import (
	"fmt"
	"strings"
)

const (
	glyphWhite = "◯"
	glyphBlack = "●"
	glyphEmpty = "·"
)

func (c cell) glyph() string {
	switch c {
	case cellWhite:
		return glyphWhite
	case cellBlack:
		return glyphBlack
	}
	return glyphEmpty
}

// String draws the pyramid levels side by side, bottom level first, followed by reserve counts.
func (b *Board) String() string {
	var sb strings.Builder

	status := fmt.Sprintf("move %d, %s to move", b.moveNumber, b.turn)
	if b.finished {
		status = fmt.Sprintf("move %d, %s won", b.moveNumber, b.winner)
	} else if b.takeBack > 0 {
		status += fmt.Sprintf(" (takes back up to %d)", b.takeBack)
	}
	sb.WriteString(status)
	sb.WriteByte('\n')

	for y := 0; y < LevelSize(0); y++ {
		var row strings.Builder
		for z := 0; z < Levels; z++ {
			size := LevelSize(z)
			for x := 0; x < size; x++ {
				if y < size {
					i, _ := PyramidCoord(x, y, z).Index()
					row.WriteString(b.cells[i].glyph())
				} else {
					row.WriteByte(' ')
				}
				row.WriteByte(' ')
			}
			row.WriteString("  ")
		}
		sb.WriteString(strings.TrimRight(row.String(), " "))
		sb.WriteByte('\n')
	}

	fmt.Fprintf(&sb, "%s %d  %s %d\n", glyphWhite, b.ReserveCount(White), glyphBlack, b.ReserveCount(Black))
	return sb.String()
}
