package resources

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/mogaika/hyperbola_tools/hmsh"
	"github.com/mogaika/hyperbola_tools/scene"
	"github.com/mogaika/hyperbola_tools/status"
	"github.com/mogaika/hyperbola_tools/utils"
)

// Action is what Materialize did to produce an output.
type Action int

const (
	ActionNone Action = iota
	ActionCopied
	ActionConverted
)

func (a Action) String() string {
	switch a {
	case ActionCopied:
		return "copied"
	case ActionConverted:
		return "converted"
	default:
		return "none"
	}
}

type handler struct {
	action Action
	run    func(c *Converter, e Entry) error
}

var handlers = map[Kind]handler{
	KindCopy:  {ActionCopied, (*Converter).copyResource},
	KindScene: {ActionConverted, (*Converter).convertScene},
}

// Converter produces entry outputs. It holds no per-entry state and may be
// used from several goroutines.
type Converter struct {
	decoder scene.Decoder
	status  *status.Reporter
	log     *log.Logger
}

func NewConverter(decoder scene.Decoder, r *status.Reporter, l *log.Logger) *Converter {
	return &Converter{decoder: decoder, status: r, log: l}
}

// Materialize creates missing parent directories of the output, then copies
// or converts the source depending on its kind. On error the action is
// ActionNone.
func (c *Converter) Materialize(e Entry) (Action, error) {
	h, ok := handlers[e.Kind]
	if !ok {
		return ActionNone, newEntryError(ErrConversion, e.Source, errors.Errorf("no handler for kind %v", e.Kind))
	}
	if err := os.MkdirAll(filepath.Dir(e.Output()), 0777); err != nil {
		return ActionNone, newEntryError(ErrIO, e.Output(), err)
	}
	if err := h.run(c, e); err != nil {
		return ActionNone, err
	}
	return h.action, nil
}

func (c *Converter) copyResource(e Entry) error {
	c.status.Info("Copying %s", filepath.Base(e.Output()))
	if err := copyFile(e.Source, e.Output()); err != nil {
		return newEntryError(ErrIO, e.Source, err)
	}
	return nil
}

func (c *Converter) convertScene(e Entry) error {
	c.status.Info("Post processing %s: %s", filepath.Ext(e.Source), filepath.Base(e.Output()))

	s, err := c.decoder.DecodeFile(e.Source)
	if err != nil {
		return newEntryError(ErrConversion, e.Source, err)
	}
	mesh, err := hmsh.FromScene(s)
	if err != nil {
		return newEntryError(ErrConversion, e.Source, err)
	}
	if len(s.Meshes) > 1 {
		c.log.Warn("scene has several meshes, only the first is kept", "file", e.Source, "meshes", len(s.Meshes))
	}
	if c.log.GetLevel() <= log.DebugLevel {
		c.log.Debugf("mesh %q of %s, %d triangles\n%s", s.Meshes[0].Name, e.Source, mesh.Triangles(), utils.SDump(mesh.VertexCount, mesh.IndexCount))
	}

	if err := hmsh.Encode(e.Output(), mesh); err != nil {
		return newEntryError(ErrIO, e.Output(), err)
	}
	return nil
}

func copyFile(from, to string) (err error) {
	src, err := os.Open(from)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(to)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := dst.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(to)
		}
	}()

	_, err = io.Copy(dst, src)
	return err
}
