package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mogaika/hyperbola_tools/scene/scenetest"
	"github.com/mogaika/hyperbola_tools/utils"
)

func runTool(args ...string) (int, string) {
	var out bytes.Buffer
	code := run(context.Background(), args, &out, utils.NewLogger(io.Discard))
	return code, out.String()
}

func TestUsage(t *testing.T) {
	for _, args := range [][]string{nil, {"only-one"}, {"-v", "only-one"}} {
		code, out := runTool(args...)
		if code != exitFatal {
			t.Errorf("run(%q) = %d; expected %d", args, code, exitFatal)
		}
		if !strings.HasPrefix(out, "Usage: ") {
			t.Errorf("run(%q) printed %q", args, out)
		}
	}
}

func TestBuild(t *testing.T) {
	src := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	if err := os.WriteFile(filepath.Join(src, "notes.txt"), []byte("n"), 0666); err != nil {
		t.Fatal(err)
	}
	if err := scenetest.WriteGLB(filepath.Join(src, "tri.glb"), scenetest.Document(scenetest.Triangle())); err != nil {
		t.Fatal(err)
	}

	code, stdout := runTool(`"`+src+`"`, `"`+out+`"`)
	if code != exitOK {
		t.Fatalf("exit %d, output:\n%s", code, stdout)
	}
	for _, line := range []string{"== HyperbolaTools v1 ==", "Copying notes.txt", "Post processing .glb: tri.hmsh", "2 files: 0 up to date, 1 copied, 1 converted, 0 failed"} {
		if !strings.Contains(stdout, line) {
			t.Errorf("output misses %q:\n%s", line, stdout)
		}
	}
	if _, err := os.Stat(filepath.Join(out, "tri.hmsh")); err != nil {
		t.Error(err)
	}

	code, stdout = runTool("-j", "2", src, out)
	if code != exitOK || !strings.Contains(stdout, "2 up to date, 0 copied, 0 converted") {
		t.Errorf("second run exit %d:\n%s", code, stdout)
	}
}

func TestEntryFailureExitCode(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "bad.gltf"), []byte("{"), 0666); err != nil {
		t.Fatal(err)
	}
	if code, out := runTool(src, t.TempDir()); code != exitEntriesFailed {
		t.Errorf("exit %d; expected %d:\n%s", code, exitEntriesFailed, out)
	}
}

func TestMissingResourceFolder(t *testing.T) {
	code, out := runTool(filepath.Join(t.TempDir(), "missing"), t.TempDir())
	if code != exitFatal || !strings.Contains(out, "Fatal: ") {
		t.Errorf("exit %d:\n%s", code, out)
	}
}

func TestConfigFile(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "build.yaml")
	if err := os.WriteFile(cfgPath, []byte("scene_extensions: [.gltf]\n"), 0666); err != nil {
		t.Fatal(err)
	}
	if err := scenetest.WriteGLB(filepath.Join(src, "tri.glb"), scenetest.Document(scenetest.Triangle())); err != nil {
		t.Fatal(err)
	}

	if code, stdout := runTool("-config", cfgPath, src, out); code != exitOK {
		t.Fatalf("exit %d:\n%s", code, stdout)
	}
	// .glb is no longer a scene extension, so it is copied as is
	if _, err := os.Stat(filepath.Join(out, "tri.glb")); err != nil {
		t.Error(err)
	}

	if code, _ := runTool("-j", "-1", src, out); code != exitFatal {
		t.Errorf("negative workers accepted, exit %d", code)
	}
}
