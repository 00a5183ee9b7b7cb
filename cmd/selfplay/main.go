package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/muesli/termenv"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"pylos/internal/domain/pylos"
	"pylos/internal/report"
	"pylos/internal/usecase/bot"
)

type mover interface {
	ChooseMove(b *pylos.Board) (pylos.Move, int, bool)
}

type options struct {
	fuel     int
	moveCap  int
	maxMoves int
	white    string
	black    string
	seed     int64
	pdf      string
	quiet    bool
}

func main() {
	opts := options{}
	flag.IntVar(&opts.fuel, "fuel", bot.DefaultFuel, "node budget of one engine decision")
	flag.IntVar(&opts.moveCap, "move-cap", bot.DefaultMoveCap, "move number past which the engine stops searching")
	flag.IntVar(&opts.maxMoves, "max-moves", 1000, "abandon the game after this many moves")
	flag.StringVar(&opts.white, "white", "engine", "white player: engine or random")
	flag.StringVar(&opts.black, "black", "engine", "black player: engine or random")
	flag.Int64Var(&opts.seed, "seed", time.Now().UnixNano(), "seed of random players")
	flag.StringVar(&opts.pdf, "pdf", "", "write a report to this path (default: XDG data dir)")
	flag.BoolVarP(&opts.quiet, "quiet", "q", false, "only print the result")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	log := logger.Sugar()
	defer log.Sync()

	if err := run(opts, log); err != nil {
		log.Errorw("self-play failed", "error", err)
		os.Exit(1)
	}
}

func run(opts options, log *zap.SugaredLogger) error {
	white, err := newMover(opts.white, opts, 0)
	if err != nil {
		return err
	}
	black, err := newMover(opts.black, opts, 1)
	if err != nil {
		return err
	}

	out := termenv.NewOutput(os.Stdout)
	paint := strings.NewReplacer(
		"◯", out.String("◯").Foreground(out.Color("15")).Bold().String(),
		"●", out.String("●").Foreground(out.Color("9")).Bold().String(),
	)

	b := pylos.NewBoard()
	var played []pylos.Move
	for !b.IsOver() && len(played) < opts.maxMoves {
		m := white
		if b.Turn() == pylos.Black {
			m = black
		}
		mv, score, ok := m.ChooseMove(b)
		if !ok {
			break
		}
		if err := b.Apply(mv); err != nil {
			return fmt.Errorf("move %d %s: %w", len(played)+1, mv, err)
		}
		played = append(played, mv)
		if !opts.quiet {
			fmt.Fprintf(out, "%s  (score %d)\n%s\n\n", mv, score, paint.Replace(b.String()))
		}
	}

	if winner, over := b.Winner(); over {
		fmt.Fprintf(out, "%s wins after %d moves\n", winner, len(played))
	} else {
		fmt.Fprintf(out, "abandoned after %d moves\n", len(played))
	}

	path := opts.pdf
	if path == "" {
		path, err = xdg.DataFile(fmt.Sprintf("pylos/selfplay-%s.pdf", time.Now().Format("20060102-150405")))
		if err != nil {
			return fmt.Errorf("report path: %w", err)
		}
	}
	if err := report.WritePDF(report.Game{White: opts.white, Black: opts.black, Moves: played, Final: b}, path); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	log.Infow("report written", "path", path)
	return nil
}

func newMover(kind string, opts options, offset int64) (mover, error) {
	switch kind {
	case "engine":
		return bot.NewEngine(opts.fuel, opts.moveCap), nil
	case "random":
		return bot.NewRandomMover(opts.seed + offset), nil
	}
	return nil, fmt.Errorf("unknown player %q", kind)
}
