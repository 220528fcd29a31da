package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"bdr-canlib/canmap"
	"bdr-canlib/codec"
	"bdr-canlib/utils"
)

type RunnerConfig struct {
	Interface   string
	CatalogPath string
	ReplayPath  string
	ScriptPath  string
}

// Stats counts what the receive loop has seen.
type Stats struct {
	Frames  uint64
	Decoded uint64
	Unknown uint64
	Errors  uint64
	Sent    uint64
}

type Runner struct {
	log    *utils.Logger
	reg    *canmap.Registry
	script Script
	reader utils.CANReader
	writer utils.CANWriter
	stats  Stats
}

func NewRunner(ctx context.Context, cfg RunnerConfig, log *utils.Logger) (*Runner, error) {
	reg, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, errors.Wrap(err, "load catalog")
	}

	var script Script
	if cfg.ScriptPath != "" {
		if script, err = LoadScript(cfg.ScriptPath); err != nil {
			return nil, errors.Wrap(err, "load script")
		}
	}

	var (
		reader utils.CANReader
		writer utils.CANWriter
	)
	if cfg.ReplayPath != "" {
		if reader, err = utils.OpenReplay(cfg.ReplayPath); err != nil {
			return nil, errors.Wrap(err, "open replay")
		}
		writer = utils.DiscardWriter{}
	} else {
		if writer, err = utils.NewSocketCANWriter(ctx, cfg.Interface); err != nil {
			return nil, err
		}
		if reader, err = utils.NewSocketCANReader(ctx, cfg.Interface); err != nil {
			_ = writer.Close()
			return nil, err
		}
	}

	return newRunner(reg, script, reader, writer, log), nil
}

func newRunner(reg *canmap.Registry, script Script, reader utils.CANReader, writer utils.CANWriter, log *utils.Logger) *Runner {
	return &Runner{
		log:    log,
		reg:    reg,
		script: script,
		reader: reader,
		writer: writer,
	}
}

// loadCatalog picks the loader from the file extension. An empty path selects
// the built-in catalog.
func loadCatalog(path string) (*canmap.Registry, error) {
	if path == "" {
		return canmap.Default(), nil
	}
	fsys, name := os.DirFS(filepath.Dir(path)), filepath.Base(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dbc":
		return canmap.LoadDBC(fsys, name)
	case ".csv":
		return canmap.LoadCSV(fsys, name)
	default:
		return nil, errors.Newf("unsupported catalog format %q", filepath.Ext(path))
	}
}

func (r *Runner) Close() {
	if r.reader != nil {
		_ = r.reader.Close()
	}
	if r.writer != nil {
		_ = r.writer.Close()
	}
}

func (r *Runner) Stats() Stats {
	return r.stats
}

func (r *Runner) Run(ctx context.Context) error {
	r.log.Info("Catalog: messages=%d signals=%d", len(r.reg.MessageIDs()), r.reg.Len())

	if err := r.sendScript(ctx); err != nil {
		return err
	}

	defer func() {
		r.log.Info("Completed RX. frames=%d decoded=%d unknown=%d errors=%d",
			r.stats.Frames, r.stats.Decoded, r.stats.Unknown, r.stats.Errors)
	}()

	for {
		frame, err := r.reader.ReadFrame(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctx.Err() != nil {
				r.log.Warn("Context canceled; stopping RX")
				return ctx.Err()
			}
			r.stats.Errors++
			r.log.Error("RX error: %v", err)
			continue
		}
		r.handleFrame(codec.FromCAN(frame))
	}
}

func (r *Runner) sendScript(ctx context.Context) error {
	if len(r.script.Commands) == 0 {
		return nil
	}
	r.log.Info("Sending script %q: commands=%d", r.script.Name, len(r.script.Commands))

	for i, cmd := range r.script.Commands {
		id, err := cmd.ID()
		if err != nil {
			return err
		}
		frame, err := codec.EncodeMessage(id, r.reg.Lookup(id), cmd.Values)
		if err != nil {
			r.log.Error("Encode failed for command %d (0x%X): %v", i, id, err)
			return errors.Wrapf(err, "command %d", i)
		}
		if err := r.writer.WriteFrame(ctx, codec.ToCAN(frame)); err != nil {
			r.log.Critical("Transmit failed for command %d: %v", i, err)
			return err
		}
		r.stats.Sent++
		r.log.Info("TX %s %s", frame, formatValues(cmd.Values))
	}
	return nil
}

func (r *Runner) handleFrame(frame codec.RawFrame) {
	r.stats.Frames++
	r.log.Trace("RX %s", frame)

	descs := r.reg.Lookup(frame.ID)
	if len(descs) == 0 {
		r.stats.Unknown++
		r.log.Debug("RX 0x%X: %v", frame.ID, canmap.ErrUnknownMessageID)
		return
	}

	parts := make([]string, 0, len(descs))
	for _, d := range descs {
		v, err := codec.Decode(d, frame)
		if err != nil {
			r.stats.Errors++
			r.log.Error("Decode 0x%X %s failed: %v", frame.ID, d.Name, err)
			continue
		}
		parts = append(parts, formatSignal(d, v))
	}
	if len(parts) == 0 {
		return
	}
	r.stats.Decoded++
	r.log.Info("RX 0x%X %s: %s", frame.ID, descs[0].Title, strings.Join(parts, ", "))
}

func formatSignal(d canmap.SignalDescriptor, v float64) string {
	s := d.Name + "=" + formatFloat(v)
	if d.Units != "" && d.Units != "#" {
		s += " " + d.Units
	}
	return s
}

func formatValues(values map[string]float64) string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+formatFloat(values[name]))
	}
	return strings.Join(parts, " ")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
