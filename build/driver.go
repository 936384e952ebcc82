// Package build runs one incremental pass over a resource tree:
// enumerate, check staleness, then copy or convert every stale entry.
package build

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/mogaika/hyperbola_tools/config"
	"github.com/mogaika/hyperbola_tools/resources"
	"github.com/mogaika/hyperbola_tools/scene"
	"github.com/mogaika/hyperbola_tools/status"
)

type State int32

const (
	Idle State = iota
	Enumerating
	Checking
	Converting
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Enumerating:
		return "enumerating"
	case Checking:
		return "checking"
	case Converting:
		return "converting"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

type Report struct {
	Total     int
	UpToDate  int
	Copied    int
	Converted int
	Failed    int
	// Errors holds one error per failed entry
	Errors []error
}

// Produced is the number of outputs written.
func (r *Report) Produced() int {
	return r.Copied + r.Converted
}

type Driver struct {
	SourceRoot string
	OutputRoot string

	cfg        *config.Config
	classifier *resources.Classifier
	converter  *resources.Converter
	status     *status.Reporter
	log        *log.Logger

	state atomic.Int32
}

func NewDriver(sourceRoot, outputRoot string, cfg *config.Config, decoder scene.Decoder, r *status.Reporter, l *log.Logger) *Driver {
	return &Driver{
		SourceRoot: sourceRoot,
		OutputRoot: outputRoot,
		cfg:        cfg,
		classifier: resources.NewClassifier(cfg.SceneExtensions, cfg.MeshExtension),
		converter:  resources.NewConverter(decoder, r, l),
		status:     r,
		log:        l,
	}
}

func (d *Driver) State() State {
	return State(d.state.Load())
}

func (d *Driver) setState(s State) {
	d.state.Store(int32(s))
	d.log.Debug("build state", "state", s)
}

// Run performs one build. Only enumeration errors are returned, entry
// failures are collected in the report. Cancelling ctx stops scheduling of
// entries not yet started.
func (d *Driver) Run(ctx context.Context) (*Report, error) {
	d.setState(Enumerating)
	catalog, err := resources.Enumerate(d.SourceRoot, d.OutputRoot, d.classifier)
	if err != nil {
		d.setState(Failed)
		return nil, err
	}

	report := &Report{Total: len(catalog)}

	d.setState(Checking)
	pending := make([]resources.Entry, 0, len(catalog))
	for _, e := range catalog.Sorted() {
		if err := e.Collision(); err != nil {
			d.fail(report, err)
			continue
		}
		rebuild, err := resources.NeedsRebuild(e)
		if err != nil {
			d.fail(report, err)
			continue
		}
		if rebuild {
			pending = append(pending, e)
		} else {
			report.UpToDate++
			d.status.Info("Up to date: %s", filepath.Base(e.Output()))
		}
	}

	d.setState(Converting)
	d.convert(ctx, pending, report)

	d.setState(Done)
	d.log.Info("build finished",
		"files", report.Total, "up_to_date", report.UpToDate,
		"copied", report.Copied, "converted", report.Converted, "failed", report.Failed)
	return report, nil
}

func (d *Driver) convert(ctx context.Context, pending []resources.Entry, report *Report) {
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(d.cfg.Workers)

	for i, e := range pending {
		if ctx.Err() != nil {
			d.log.Warn("build cancelled", "remaining", len(pending)-i)
			break
		}
		e := e
		g.Go(func() error {
			action, err := d.converter.Materialize(e)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				d.fail(report, err)
				return nil
			}
			switch action {
			case resources.ActionConverted:
				report.Converted++
			case resources.ActionCopied:
				report.Copied++
			}
			return nil
		})
	}
	g.Wait()
}

func (d *Driver) fail(report *Report, err error) {
	report.Failed++
	report.Errors = append(report.Errors, err)
	d.status.Error("%v", err)
	d.log.Error("entry failed", "file", resources.Path(err), "err", err)
}
