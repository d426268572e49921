// Command cellbench measures propagation latency through width×height grids
// of transform cells.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"

	"github.com/reactive-cells/cellgraph/cell"
)

const (
	widthsKey  = "widths"
	heightsKey = "heights"
	itersKey   = "iters"
	htmlKey    = "html"
)

func main() {
	cmd := &cli.Command{
		Name:  "cellbench",
		Usage: "Measure cellgraph propagation latency across graph shapes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  widthsKey,
				Usage: "comma-separated branch widths",
				Value: "1,10,100",
			},
			&cli.StringFlag{
				Name:  heightsKey,
				Usage: "comma-separated chain heights",
				Value: "1,10,100",
			},
			&cli.UintFlag{
				Name:  itersKey,
				Usage: "propagations timed per grid cell",
				Value: 100,
			},
			&cli.StringFlag{
				Name:  htmlKey,
				Usage: "if set, dump a debug HTML snapshot of the last grid cell's graph to this path",
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	widths, err := parseInts(cmd.String(widthsKey))
	if err != nil {
		return fmt.Errorf("cellbench: %w", err)
	}
	heights, err := parseInts(cmd.String(heightsKey))
	if err != nil {
		return fmt.Errorf("cellbench: %w", err)
	}
	iters := int(cmd.Uint(itersKey))

	start := time.Now()
	log.Printf("cellbench starting: %s widths, %s heights, %s iterations each",
		humanize.Comma(int64(len(widths))), humanize.Comma(int64(len(heights))), humanize.Comma(int64(iters)))
	defer func() {
		log.Printf("cellbench finished in %v", time.Since(start))
	}()

	tbl := table.NewWriter()
	tbl.SetTitle("cellgraph propagation")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"width", "height", "avg", "min", "p75", "p99", "max"})

	var lastSnapshot []NodeSnapshot
	for _, w := range widths {
		for _, h := range heights {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			src, sinks, nodes := buildGrid(w, h)
			for _, sink := range sinks {
				sink.Use()
			}

			for i := 0; i < iters; i++ {
				t0 := time.Now()
				src.Trigger(i)
				tach.AddTime(time.Since(t0))
			}

			calc := tach.Calc()
			tbl.AppendRow(table.Row{
				humanize.Comma(int64(w)), humanize.Comma(int64(h)),
				calc.Time.Avg, calc.Time.Min, calc.Time.P75, calc.Time.P99, calc.Time.Max,
			})

			for _, sink := range sinks {
				sink.Drop()
			}
			lastSnapshot = nodes
		}
	}
	tbl.Render()

	if htmlPath := cmd.String(htmlKey); htmlPath != "" {
		if err := os.WriteFile(htmlPath, []byte(RenderHTML(lastSnapshot)), 0o644); err != nil {
			return fmt.Errorf("cellbench: writing html dump: %w", err)
		}
		log.Printf("wrote debug graph snapshot to %s", htmlPath)
	}

	return nil
}

// buildGrid constructs width independent chains of height transform cells
// each, all fed from one shared source cell. It returns the source, one
// sink cell per chain (Use()'d by the caller to keep the chain alive), and
// a flattened NodeSnapshot list for the debug dump.
func buildGrid(width, height int) (src *cell.Cell, sinks []*cell.Cell, nodes []NodeSnapshot) {
	src = cell.New(cell.Options{})
	src.Activate = func() {}
	nodes = append(nodes, snapshotOf("src", src))

	for i := 0; i < width; i++ {
		var last *cell.Cell = src
		for j := 0; j < height; j++ {
			tc := cell.Map(func(args []any) any {
				return args[0].(int) + 1
			}, last)
			last = tc.Cell
			nodes = append(nodes, snapshotOf(fmt.Sprintf("chain%d/depth%d", i, j), last))
		}
		sinks = append(sinks, last)
	}
	return src, sinks, nodes
}

func parseInts(csv string) ([]int, error) {
	parts := strings.Split(csv, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", p, err)
		}
		out = append(out, n)
	}
	return out, nil
}
