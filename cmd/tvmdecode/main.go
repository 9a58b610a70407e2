// Command tvmdecode drives a playback manager over a directory of
// subsequence_NNN artifacts, advancing through the sequence once per
// tick and reporting each fetched frame's vertex count along the way. It
// exists to exercise the library end to end from the command line, not
// as a production player.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/tvmseq/tvmdecode"
	"github.com/tvmseq/tvmdecode/config"
	"github.com/tvmseq/tvmdecode/diagnostics"
	"github.com/tvmseq/tvmdecode/internal/tvmlog"
	"github.com/tvmseq/tvmdecode/playback"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "tvmdecode.yaml", "path to a playback config YAML file")
	ticks := flag.Int("ticks", 1, "number of Advance ticks to run before exiting")
	residualPlot := flag.String("residual-plot", "", "if set, decode subsequence 1 in isolation and write its solver convergence plot to this PNG path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "tvmdecode:", err)
		return 1
	}

	if err := tvmlog.Init(cfg.LogLevel, cfg.LogFile != "", cfg.LogFile); err != nil {
		fmt.Fprintln(os.Stderr, "tvmdecode:", err)
		return 1
	}
	log := tvmlog.L()

	if *residualPlot != "" {
		if err := writeResidualPlot(cfg.RootDir, *residualPlot); err != nil {
			log.Error("residual plot failed", zap.Error(err))
			return 1
		}
	}

	pm, err := playback.NewManager(cfg.RootDir, cfg.MemLoad, cfg.DecodeLoad, true)
	if err != nil {
		log.Error("failed to start playback manager", zap.Error(err))
		return 1
	}

	for i := 0; i < *ticks; i++ {
		frame := pm.FetchFrame(0)
		if frame == nil {
			log.Warn("current subsequence not ready", zap.Int("subsequence", pm.CurrentSubSequence()))
		} else {
			log.Info("fetched frame", zap.Int("subsequence", pm.CurrentSubSequence()), zap.Int("vertices", len(frame)))
		}
		if !pm.Advance() {
			log.Warn("advance stalled, next subsequence not ready", zap.Int("tick", i))
		}
	}

	return 0
}

// writeResidualPlot loads and decodes subsequence_001 under root in
// isolation, purely to capture its solver's residual history, and
// renders it to path. It never touches the playback manager, since
// Manager.DecodeSubSequence discards residual history by design.
func writeResidualPlot(root, path string) error {
	dec := tvmdecode.NewDecoder("residual-plot")
	dir := filepath.Join(root, "subsequence_001")
	if err := dec.Load(dir); err != nil {
		return fmt.Errorf("loading %s: %w", dir, err)
	}
	history, err := dec.DecodeWithHistory()
	if err != nil {
		return fmt.Errorf("decoding %s: %w", dir, err)
	}
	return diagnostics.PlotResidualHistory(path, history)
}
