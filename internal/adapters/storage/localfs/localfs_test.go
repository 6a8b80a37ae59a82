package localfs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reel/internal/ports"
)

func TestPutGetDelete(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	fs := New(root)

	out, err := fs.PutObject(ctx, ports.PutObjectInput{
		ObjectKey: "sources/rnd_1/Video.tsx",
		Reader:    strings.NewReader("export default () => null;"),
	})
	if err != nil {
		t.Fatalf("PutObject() error = %v", err)
	}
	if out.ObjectKey != "sources/rnd_1/Video.tsx" || out.Size != 26 {
		t.Errorf("unexpected output %+v", out)
	}

	rc, _, size, err := fs.GetObject(ctx, out.ObjectKey)
	if err != nil {
		t.Fatalf("GetObject() error = %v", err)
	}
	body, _ := io.ReadAll(rc)
	rc.Close()
	if string(body) != "export default () => null;" || size != 26 {
		t.Errorf("got %q (%d bytes)", body, size)
	}

	if err := fs.DeleteObject(ctx, out.ObjectKey); err != nil {
		t.Fatalf("DeleteObject() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "sources", "rnd_1", "Video.tsx")); !os.IsNotExist(err) {
		t.Error("object still exists after delete")
	}
}

func TestPutLeavesNoTempFiles(t *testing.T) {
	root := t.TempDir()
	fs := New(root)
	if _, err := fs.PutObject(context.Background(), ports.PutObjectInput{
		ObjectKey: "renders/rnd_1/output.mp4",
		Reader:    strings.NewReader("data"),
	}); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(filepath.Join(root, "renders", "rnd_1"))
	if len(entries) != 1 || entries[0].Name() != "output.mp4" {
		t.Errorf("unexpected entries %v", entries)
	}
}

func TestRejectsEscapingKeys(t *testing.T) {
	fs := New(t.TempDir())
	for _, key := range []string{"", "../etc/passwd", "a/../../b", "/abs"} {
		if _, err := fs.PutObject(context.Background(), ports.PutObjectInput{ObjectKey: key, Reader: strings.NewReader("x")}); err == nil {
			t.Errorf("PutObject(%q) should fail", key)
		}
	}
}

func TestPing(t *testing.T) {
	if err := New(t.TempDir()).Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if err := New(filepath.Join(t.TempDir(), "missing")).Ping(context.Background()); err == nil {
		t.Error("expected error for missing root")
	}
}
