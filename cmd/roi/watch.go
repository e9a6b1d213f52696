/*
DESCRIPTION
  watch.go provides watch mode: real time playback of the capture while a
  collection runs, with playback controls and live plan reloading.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/ausocean/roitools/collect"
	"github.com/ausocean/roitools/config"
	"github.com/ausocean/roitools/player"
	"github.com/ausocean/roitools/roi"
	"github.com/ausocean/utils/logging"
)

// watch plays the capture through the collector c until the collection is
// complete, the capture ends or the user quits. seen is the number of plan
// entries already scheduled.
func watch(ctx context.Context, cfg config.Config, s *roi.Set, c *collect.Collector, seen int) (*collect.Result, error) {
	log := cfg.Logger
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := []player.Option{player.Idle(cfg.IdleDelay), player.OnFrame(c.Step)}
	if cfg.Preview != "" {
		f, err := os.Create(cfg.Preview)
		if err != nil {
			return nil, fmt.Errorf("could not create preview: %w", err)
		}
		opts = append(opts, player.Displays(player.NewPreview(log, f)))
	}
	var keys <-chan int
	if cfg.Window {
		w, err := player.NewWindow(s.Capture().Title)
		if err != nil {
			log.Warning(pkg+"could not open window", "error", err.Error())
		} else {
			opts = append(opts, player.Displays(w))
			keys = w.Keys()
		}
	}

	p, err := player.New(log, s, s.Capture().FPS, opts...)
	if err != nil {
		return nil, fmt.Errorf("could not create player: %w", err)
	}

	if cfg.PlanPath != "" {
		go func() {
			err := watchPlan(ctx, log, cfg.PlanPath, c, seen)
			if err != nil {
				log.Warning(pkg+"plan no longer watched", "error", err.Error())
			}
		}()
	}
	go readControls(ctx, log, os.Stdin, p, c, cancel)
	go keyControls(ctx, log, keys, p, c, cancel)

	p.Play()
	runErr := p.Run(ctx)
	cancel()

	// Commands already read may still be applied, so close under the player
	// lock.
	var res *collect.Result
	err = p.Do(func(*roi.Set) error {
		var err error
		res, err = c.Close()
		return err
	})
	if runErr != nil {
		return res, runErr
	}
	return res, err
}

// watchPlan schedules entries appended to the plan file at path whenever it
// changes. Entries already scheduled are not changed by edits.
func watchPlan(ctx context.Context, log logging.Logger, path string, c *collect.Collector, seen int) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Editors often replace files, so watch the directory.
	err = w.Add(filepath.Dir(path))
	if err != nil {
		return err
	}
	path = filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			seen = reload(log, path, c, seen)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warning(pkg+"plan watcher error", "error", err.Error())
		}
	}
}

// reload reads the plan at path and schedules entries after the first seen.
// It returns the number of entries now scheduled.
func reload(log logging.Logger, path string, c *collect.Collector, seen int) int {
	p, err := collect.LoadPlan(path)
	if err != nil {
		log.Warning(pkg+"could not reload plan", "error", err.Error())
		return seen
	}
	if len(p.Regions) < seen {
		log.Warning(pkg+"plan entries removed, only appended entries are scheduled", "entries", len(p.Regions), "scheduled", seen)
		return seen
	}
	if len(p.Regions) == seen {
		return seen
	}
	err = c.Schedule(p.Regions[seen:]...)
	if err != nil {
		log.Warning(pkg+"could not schedule plan entries", "error", err.Error())
		return seen
	}
	log.Info(pkg+"scheduled new plan entries", "new", len(p.Regions)-seen)
	return len(p.Regions)
}

// Playback commands, read one per line from stdin or as window keys.
const (
	cmdToggle    = "p"
	cmdBackwards = "b"
	cmdForwards  = "f"
	cmdStop      = "s"
	cmdStep      = "n"
	cmdGoto      = "g"
	cmdExport    = "x"
	cmdBrighter  = "+"
	cmdDarker    = "-"
	cmdReset     = "0"
	cmdQuit      = "q"
)

// control applies the command line to the player p and collector c. It
// returns true if the command asks to quit.
func control(p *player.Player, c *collect.Collector, line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	switch fields[0] {
	case cmdToggle:
		p.Toggle()
	case cmdBackwards:
		p.Backwards(true)
	case cmdForwards:
		p.Backwards(false)
	case cmdStop:
		return false, p.Stop()
	case cmdStep:
		return false, p.Step()
	case cmdGoto:
		if len(fields) != 2 {
			return false, fmt.Errorf("usage: %s <frame>", cmdGoto)
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return false, fmt.Errorf("invalid frame: %w", err)
		}
		return false, p.SetPosition(n)
	case cmdExport:
		ids := make([]int, 0, len(fields)-1)
		for _, f := range fields[1:] {
			id, err := strconv.Atoi(f)
			if err != nil {
				return false, fmt.Errorf("invalid region id: %w", err)
			}
			ids = append(ids, id)
		}
		return false, p.Do(func(*roi.Set) error { return c.Export(ids...) })
	case cmdBrighter:
		p.Brighter()
	case cmdDarker:
		p.Darker()
	case cmdReset:
		p.ResetBrightness()
	case cmdQuit:
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q", fields[0])
	}
	return false, nil
}

// readControls applies commands read from r until quit or r is exhausted.
func readControls(ctx context.Context, log logging.Logger, r io.Reader, p *player.Player, c *collect.Collector, quit func()) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		q, err := control(p, c, sc.Text())
		if err != nil {
			log.Warning(pkg+"could not apply command", "error", err.Error())
		}
		if q {
			quit()
			return
		}
	}
}

// keyControls applies window key presses as commands. A space toggles
// playback.
func keyControls(ctx context.Context, log logging.Logger, keys <-chan int, p *player.Player, c *collect.Collector, quit func()) {
	if keys == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case k := <-keys:
			cmd := string(rune(k))
			if k == ' ' {
				cmd = cmdToggle
			}
			q, err := control(p, c, cmd)
			if err != nil {
				log.Debug(pkg+"ignoring key", "key", k)
			}
			if q {
				quit()
				return
			}
		}
	}
}
