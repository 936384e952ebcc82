package build

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/mogaika/hyperbola_tools/config"
	"github.com/mogaika/hyperbola_tools/hmsh"
	"github.com/mogaika/hyperbola_tools/resources"
	"github.com/mogaika/hyperbola_tools/scene"
	"github.com/mogaika/hyperbola_tools/scene/scenetest"
	"github.com/mogaika/hyperbola_tools/status"
	"github.com/mogaika/hyperbola_tools/utils"
)

type fixture struct {
	src, out string
	progress bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{src: t.TempDir(), out: filepath.Join(t.TempDir(), "out")}
	f.write(t, "readme.txt", "hello")
	f.write(t, "textures/wall.png", "\x89PNG fake")
	f.write(t, "shaders/deep/lit.frag", "void main() {}")
	if err := scenetest.WriteGLB(filepath.Join(f.src, "models", "crate.glb"), scenetest.Document(scenetest.Quad())); err != nil {
		t.Fatal(err)
	}
	return f
}

func (f *fixture) write(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(f.src, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0777); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0666); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) driver(workers int) *Driver {
	cfg := config.Default()
	cfg.Workers = workers
	return NewDriver(f.src, f.out, cfg, scene.GLTFDecoder{}, status.New(&f.progress), utils.NewLogger(io.Discard))
}

func (f *fixture) run(t *testing.T, workers int) *Report {
	t.Helper()
	d := f.driver(workers)
	rep, err := d.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if d.State() != Done {
		t.Errorf("state %v after run", d.State())
	}
	return rep
}

func TestRunMirrorsTree(t *testing.T) {
	for _, workers := range []int{1, 4} {
		f := newFixture(t)
		rep := f.run(t, workers)
		if rep.Total != 4 || rep.Copied != 3 || rep.Converted != 1 || rep.Failed != 0 {
			t.Fatalf("workers=%d report %+v", workers, rep)
		}

		for _, rel := range []string{"readme.txt", "textures/wall.png", "shaders/deep/lit.frag"} {
			want, _ := os.ReadFile(filepath.Join(f.src, filepath.FromSlash(rel)))
			got, err := os.ReadFile(filepath.Join(f.out, filepath.FromSlash(rel)))
			if err != nil {
				t.Errorf("workers=%d: %v", workers, err)
				continue
			}
			if !bytes.Equal(got, want) {
				t.Errorf("workers=%d: %s not byte identical", workers, rel)
			}
		}
		m, err := hmsh.Decode(filepath.Join(f.out, "models", "crate.hmsh"))
		if err != nil {
			t.Fatal(err)
		}
		if m.VertexCount != 4 || m.IndexCount != 6 {
			t.Errorf("mesh %d/%d", m.VertexCount, m.IndexCount)
		}
		if _, err := os.Stat(filepath.Join(f.out, "models", "crate.glb")); !os.IsNotExist(err) {
			t.Errorf("scene copied verbatim: %v", err)
		}
	}
}

func TestRunIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.run(t, 1)
	f.progress.Reset()

	rep := f.run(t, 1)
	if rep.Produced() != 0 || rep.UpToDate != 4 {
		t.Errorf("second run report %+v", rep)
	}
	if got := strings.Count(f.progress.String(), "Up to date: "); got != 4 {
		t.Errorf("%d up to date lines in %q", got, f.progress.String())
	}
}

func TestRunRebuildsStale(t *testing.T) {
	f := newFixture(t)
	f.run(t, 1)

	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(filepath.Join(f.src, "readme.txt"), future, future); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(filepath.Join(f.src, "models", "crate.glb"), future, future); err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(filepath.Join(f.src, "textures", "wall.png"), past, past); err != nil {
		t.Fatal(err)
	}

	rep := f.run(t, 1)
	if rep.Copied != 1 || rep.Converted != 1 || rep.UpToDate != 2 {
		t.Errorf("report %+v", rep)
	}
}

func TestRunContinuesAfterBadScene(t *testing.T) {
	f := newFixture(t)
	if err := scenetest.WriteGLB(filepath.Join(f.src, "models", "aaa_empty.glb"), scenetest.Document()); err != nil {
		t.Fatal(err)
	}
	f.write(t, "models/broken.gltf", "{ nope")

	rep := f.run(t, 1)
	if rep.Failed != 2 || rep.Converted != 1 || rep.Copied != 3 {
		t.Fatalf("report %+v", rep)
	}
	var empty bool
	for _, err := range rep.Errors {
		if !errors.Is(err, resources.ErrConversion) {
			t.Errorf("error %v is not a conversion error", err)
		}
		if errors.Is(err, hmsh.ErrEmptyScene) {
			empty = true
		}
	}
	if !empty {
		t.Error("no ErrEmptyScene reported")
	}
	if _, err := os.Stat(filepath.Join(f.out, "models", "aaa_empty.hmsh")); !os.IsNotExist(err) {
		t.Errorf("output for empty scene: %v", err)
	}
	if !strings.Contains(f.progress.String(), "Error: ") {
		t.Errorf("no error line in progress %q", f.progress.String())
	}

	// failed entries are retried on the next run
	rep = f.run(t, 1)
	if rep.Failed != 2 || rep.UpToDate != 4 {
		t.Errorf("second report %+v", rep)
	}
}

func TestRunReportsOutputCollision(t *testing.T) {
	f := newFixture(t)
	f.write(t, "models/crate.hmsh", "user data")

	rep := f.run(t, 2)
	if rep.Failed != 1 || rep.Converted != 1 || rep.Copied != 3 {
		t.Fatalf("report %+v", rep)
	}
	if !errors.Is(rep.Errors[0], resources.ErrCollision) {
		t.Errorf("error %v; expected ErrCollision", rep.Errors[0])
	}
	m, err := hmsh.Decode(filepath.Join(f.out, "models", "crate.hmsh"))
	if err != nil {
		t.Fatalf("converted mesh was overwritten: %v", err)
	}
	if m.VertexCount != 4 {
		t.Errorf("mesh has %d vertices", m.VertexCount)
	}
}

func TestRunMissingSourceRoot(t *testing.T) {
	f := &fixture{src: filepath.Join(t.TempDir(), "missing"), out: t.TempDir()}
	d := f.driver(1)
	if d.State() != Idle {
		t.Errorf("initial state %v", d.State())
	}
	_, err := d.Run(context.Background())
	if !errors.Is(err, resources.ErrEnumeration) {
		t.Fatalf("error %v; expected ErrEnumeration", err)
	}
	if d.State() != Failed {
		t.Errorf("state %v; expected failed", d.State())
	}
}

func TestRunSkipsNestedOutput(t *testing.T) {
	f := newFixture(t)
	f.out = filepath.Join(f.src, "build")
	f.run(t, 1)

	rep := f.run(t, 1)
	if rep.Total != 4 || rep.Produced() != 0 {
		t.Errorf("report %+v, output tree was cataloged", rep)
	}
}

func TestRunCancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rep, err := f.driver(1).Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Produced() != 0 {
		t.Errorf("cancelled run produced %d outputs", rep.Produced())
	}
}
