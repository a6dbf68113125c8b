// Command worldgen runs the lithosphere simulation, streams frames to
// websocket viewers and snapshots the run so it can be resumed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"tectonics/config"
	"tectonics/core"
	"tectonics/crust"
	"tectonics/persistence/indexdb"
	"tectonics/persistence/snapshot"
	"tectonics/simulation"
	"tectonics/transport/ws"
)

type world struct {
	settings config.Settings
	grid     *core.Grid
	litho    *simulation.Lithosphere
	run      indexdb.Run
	step     uint64
}

func main() {
	var (
		configPath = flag.String("config", "settings.yaml", "YAML settings file")
		resume     = flag.String("resume", "", "run id to resume from its latest snapshot")
		steps      = flag.Int("steps", 0, "stop after this many steps (0 runs until interrupted)")
		serve      = flag.Bool("serve", true, "stream frames over websockets")
		verbose    = flag.Bool("v", false, "log every step")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	simulation.SetLogger(logger)

	settings, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}

	idx, err := indexdb.OpenSQLite(settings.Persistence.IndexDB)
	if err != nil {
		log.Fatalf("Failed to open index: %v", err)
	}
	defer idx.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var w *world
	if *resume != "" {
		w, err = resumeWorld(ctx, settings, idx, *resume)
	} else {
		w, err = newWorld(ctx, settings, idx)
	}
	if err != nil {
		log.Fatalf("Failed to initialize world: %v", err)
	}

	fmt.Printf("Run %s: %d vertices, %d plates, t=%.1f My\n",
		w.run.ID, w.grid.VertexCount(), len(w.litho.Plates), w.litho.Time/crust.MegaYear)

	if err := runWorld(ctx, w, idx, logger, *steps, *serve); err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}
	fmt.Printf("Run %s stopped at step %d, t=%.1f My\n", w.run.ID, w.step, w.litho.Time/crust.MegaYear)
}

func newWorld(ctx context.Context, settings config.Settings, idx *indexdb.SQLiteIndex) (*world, error) {
	opts := settings.Options()
	grid := core.Icosphere(settings.Grid.IcosphereLevel)

	litho := simulation.NewLithosphere(grid, opts)
	litho.SetDependencies(settings.Dependencies())
	if err := litho.Reset(simulation.SeedCrust(grid, opts, opts.Seed)); err != nil {
		return nil, err
	}

	run, err := idx.StartRun(ctx, opts.Seed, settings.Grid.IcosphereLevel, opts.PlateCount)
	if err != nil {
		return nil, err
	}
	return &world{settings: settings, grid: grid, litho: litho, run: run}, nil
}

func resumeWorld(ctx context.Context, settings config.Settings, idx *indexdb.SQLiteIndex, runID string) (*world, error) {
	run, err := idx.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	row, ok, err := idx.LatestSnapshot(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("run %s has no snapshots", run.ID)
	}
	snap, err := snapshot.Read(row.Path)
	if err != nil {
		return nil, err
	}

	grid := core.Icosphere(snap.Header.IcosphereLevel)
	litho, err := simulation.NewLithosphereFromParameters(grid, settings.Options(), settings.Dependencies(), snap.Parameters)
	if err != nil {
		return nil, err
	}
	settings.Grid.IcosphereLevel = snap.Header.IcosphereLevel
	return &world{settings: settings, grid: grid, litho: litho, run: run, step: snap.Header.Step}, nil
}

func runWorld(ctx context.Context, w *world, idx *indexdb.SQLiteIndex, logger *slog.Logger, maxSteps int, serve bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	controls := ws.NewControls(w.settings.Simulation.TimestepMy)
	server := ws.NewServer(w.grid, controls, logger)
	snapshots := make(chan snapshot.Snapshot, 4)

	g, ctx := errgroup.WithContext(ctx)

	if serve {
		httpServer := &http.Server{
			Addr:              fmt.Sprintf(":%d", w.settings.Server.Port),
			Handler:           server.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			fmt.Printf("Server starting on http://localhost:%d\n", w.settings.Server.Port)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			return httpServer.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		var failed error
		// keep draining after a failure so the simulation never blocks on send
		for snap := range snapshots {
			if failed != nil {
				continue
			}
			if err := persist(idx, w.settings.Persistence.SnapshotDir, snap); err != nil {
				failed = err
				cancel()
				continue
			}
			logger.Info("snapshot written", "step", snap.Header.Step)
		}
		return failed
	})

	g.Go(func() error {
		defer close(snapshots)
		defer cancel()
		return simulate(ctx, w, idx, server, controls, snapshots, maxSteps)
	})

	return g.Wait()
}

func simulate(ctx context.Context, w *world, idx *indexdb.SQLiteIndex, server *ws.Server, controls *ws.Controls, snapshots chan<- snapshot.Snapshot, maxSteps int) error {
	interval := time.Duration(w.settings.Server.UpdateIntervalMs) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	every := uint64(w.settings.Persistence.SnapshotEverySteps)
	lastPrint := time.Now()
	taken := 0

	for {
		select {
		case <-ctx.Done():
			snapshots <- w.snapshot()
			return nil
		case <-ticker.C:
		}

		timestepMy, paused := controls.Get()
		if paused {
			continue
		}

		simStart := time.Now()
		if err := w.litho.Step(timestepMy * crust.MegaYear); err != nil {
			return err
		}
		w.step++
		taken++
		simTime := time.Since(simStart)

		frame, err := w.litho.Frame()
		if err != nil {
			return err
		}
		if err := server.Broadcast(frame); err != nil {
			return err
		}
		if err := idx.RecordBudget(ctx, w.run.ID, w.step, frame.Time, frame.Budget); err != nil && ctx.Err() == nil {
			return fmt.Errorf("record budget: %w", err)
		}

		if every > 0 && w.step%every == 0 {
			snapshots <- w.snapshot()
		}

		if time.Since(lastPrint) > time.Second {
			lastPrint = time.Now()
			fmt.Printf("TIMING: SimTime=%v, Time=%.1f My, Step=%.1f My, Plates=%d, Clients=%d\n",
				simTime, w.litho.Time/crust.MegaYear, timestepMy, len(w.litho.Plates), server.ClientCount())
		}

		if maxSteps > 0 && taken >= maxSteps {
			snapshots <- w.snapshot()
			return nil
		}
	}
}

func persist(idx *indexdb.SQLiteIndex, dir string, snap snapshot.Snapshot) error {
	path := snapshot.Path(dir, snap.Header.Step)
	if err := snapshot.Write(path, snap); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	// recorded without ctx so the final snapshot lands after cancellation
	err := idx.RecordSnapshot(context.Background(), indexdb.SnapshotRow{
		RunID:  snap.Header.RunID,
		Step:   snap.Header.Step,
		Time:   snap.Header.Time,
		Plates: snap.Header.Plates,
		Path:   path,
	})
	if err != nil {
		return fmt.Errorf("index snapshot: %w", err)
	}
	return nil
}

func (w *world) snapshot() snapshot.Snapshot {
	return snapshot.Snapshot{
		Header: snapshot.Header{
			Version:        snapshot.Version,
			RunID:          w.run.ID,
			Step:           w.step,
			Time:           w.litho.Time,
			IcosphereLevel: w.settings.Grid.IcosphereLevel,
			Vertices:       w.grid.VertexCount(),
			Plates:         len(w.litho.Plates),
		},
		Parameters: w.litho.Parameters(),
	}
}
