package report

import (
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"pylos/internal/domain/pylos"
)

// Game is a finished (or abandoned) self-play game.
type Game struct {
	White string
	Black string
	Moves []pylos.Move
	Final *pylos.Board
}

const (
	cellSize = 9.0
	levelGap = 8.0
	marginX  = 15.0
)

// WritePDF renders the final position followed by the move list.
func WritePDF(g Game, output string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("%s (white) vs %s (black)", g.White, g.Black))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	result := "unfinished"
	if winner, over := g.Final.Winner(); over {
		result = winner.String() + " wins"
	}
	pdf.Cell(0, 6, fmt.Sprintf("Result: %s after %d moves", result, len(g.Moves)))
	pdf.Ln(10)

	top := pdf.GetY()
	drawPosition(pdf, g.Final, top)
	pdf.SetY(top + float64(pylos.LevelSize(0))*cellSize + 10)

	pdf.SetFont("Courier", "", 10)
	for i, mv := range g.Moves {
		pdf.MultiCell(0, 4.5, fmt.Sprintf("%3d. %s", i+1, mv), "", "L", false)
	}

	return pdf.OutputFileAndClose(output)
}

func drawPosition(pdf *gofpdf.Fpdf, b *pylos.Board, top float64) {
	left := marginX
	for z := 0; z < pylos.Levels; z++ {
		size := pylos.LevelSize(z)
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				cx := left + float64(x)*cellSize + cellSize/2
				cy := top + float64(y)*cellSize + cellSize/2

				pdf.SetDrawColor(0, 0, 0)
				owner, ok := b.At(pylos.PyramidCoord(x, y, z))
				switch {
				case !ok:
					pdf.SetDrawColor(190, 190, 190)
					pdf.Circle(cx, cy, cellSize/2-1, "D")
				case owner == pylos.White:
					pdf.SetFillColor(255, 255, 255)
					pdf.Circle(cx, cy, cellSize/2-1, "FD")
				default:
					pdf.SetFillColor(40, 40, 40)
					pdf.Circle(cx, cy, cellSize/2-1, "FD")
				}
			}
		}
		left += float64(size)*cellSize + levelGap
	}
}
