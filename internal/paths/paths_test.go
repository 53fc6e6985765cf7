package paths_test

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/JaimeStill/dcma/internal/batch"
	"github.com/JaimeStill/dcma/internal/paths"
)

func newResolver(t *testing.T) (*paths.Resolver, string) {
	t.Helper()
	root := t.TempDir()

	cfg := paths.Config{
		LocalFolder:       filepath.Join(root, "local"),
		BaseFolder:        filepath.Join(root, "classes"),
		ExportFolder:      filepath.Join(root, "export"),
		WebScannerFolder:  filepath.Join(root, "scanner"),
		EmailFolder:       filepath.Join(root, "email"),
		WebServicesFolder: filepath.Join(root, "web-services"),
		UploadBatchFolder: filepath.Join(root, "upload"),
		BaseHTTPURL:       "http://files.example.com/dcma-batches",
	}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	r, err := paths.New(cfg)
	if err != nil {
		t.Fatalf("new resolver failed: %v", err)
	}
	return r, root
}

func TestFinalizeDefaults(t *testing.T) {
	var cfg paths.Config
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.Names.ThreadPoolLock != "thread-pool-lock" {
		t.Errorf("thread pool lock: got %s", cfg.Names.ThreadPoolLock)
	}
	if cfg.LocalFolder != "data/batches" {
		t.Errorf("local folder: got %s", cfg.LocalFolder)
	}
}

func TestFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_PATHS_LOCAL", "/srv/batches")
	t.Setenv("TEST_PATHS_ZIP", "true")

	var cfg paths.Config
	err := cfg.Finalize(&paths.Env{
		LocalFolder: "TEST_PATHS_LOCAL",
		ZipSwitch:   "TEST_PATHS_ZIP",
	})
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.LocalFolder != "/srv/batches" {
		t.Errorf("local folder: got %s", cfg.LocalFolder)
	}
	if !cfg.ZipSwitch {
		t.Error("zip switch not applied")
	}
}

func TestFinalizeRejectsBadFolderName(t *testing.T) {
	cfg := paths.Config{Names: paths.Names{Script: "../scripts"}}
	if err := cfg.Finalize(nil); err == nil {
		t.Fatal("expected error for traversal in folder name")
	}
}

func TestMerge(t *testing.T) {
	base := paths.Config{LocalFolder: "a", Names: paths.Names{Temp: "tmp"}}
	base.Merge(&paths.Config{LocalFolder: "b", ZipSwitch: true})

	if base.LocalFolder != "b" {
		t.Errorf("local folder: got %s", base.LocalFolder)
	}
	if base.Names.Temp != "tmp" {
		t.Errorf("temp name overwritten by zero value: %s", base.Names.Temp)
	}
	if !base.ZipSwitch {
		t.Error("zip switch not merged")
	}
}

func TestFolderIsIdempotent(t *testing.T) {
	r, root := newResolver(t)

	first, err := r.Folder("BC1", paths.RoleSearchIndex, true)
	if err != nil {
		t.Fatalf("folder failed: %v", err)
	}
	second, err := r.Folder("BC1", paths.RoleSearchIndex, true)
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}

	if first != second {
		t.Errorf("paths differ: %s vs %s", first, second)
	}
	if want := filepath.Join(root, "classes", "BC1", "search-index"); first != want {
		t.Errorf("got %s, want %s", first, want)
	}
	if info, err := os.Stat(first); err != nil || !info.IsDir() {
		t.Errorf("directory not created: %v", err)
	}
}

func TestFolderConcurrentCreate(t *testing.T) {
	r, _ := newResolver(t)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for range 16 {
		wg.Go(func() {
			if _, err := r.BatchFolder("BI7", true); err != nil {
				errs <- err
			}
		})
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent create failed: %v", err)
	}
}

func TestFolderWithoutCreate(t *testing.T) {
	r, _ := newResolver(t)

	dir, err := r.Folder("BC1", paths.RoleTestTable, false)
	if err != nil {
		t.Fatalf("folder failed: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("directory should not exist: %v", err)
	}
}

func TestRejectsTraversal(t *testing.T) {
	r, _ := newResolver(t)

	tests := []struct {
		name string
		call func() error
	}{
		{"class parent", func() error { _, err := r.Folder("..", paths.RoleScript, false); return err }},
		{"class separator", func() error { _, err := r.Folder("a/b", paths.RoleScript, false); return err }},
		{"batch empty", func() error { _, err := r.BatchFolder("", false); return err }},
		{"artifact escape", func() error { _, err := r.ArtifactPath("BI1", "../BI2/x.png"); return err }},
		{"url escape", func() error { _, err := r.URL("BI1", "..\\x"); return err }},
		{"unknown role", func() error { _, err := r.Folder("BC1", paths.Role("nope"), false); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, batch.ErrInvalidArgument) {
				t.Errorf("got %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestCreateFailureIsIO(t *testing.T) {
	r, root := newResolver(t)

	// a regular file where the batch root should be blocks MkdirAll
	if err := os.WriteFile(filepath.Join(root, "local"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := r.BatchFolder("BI1", true)
	if !errors.Is(err, batch.ErrIO) {
		t.Errorf("got %v, want ErrIO", err)
	}
}

func TestURLs(t *testing.T) {
	r, _ := newResolver(t)

	u, err := r.URL("BI1", "BI1_PG1_thumb.png")
	if err != nil {
		t.Fatalf("url failed: %v", err)
	}
	if got := u.String(); got != "http://files.example.com/dcma-batches/BI1/BI1_PG1_thumb.png" {
		t.Errorf("got %s", got)
	}

	folder, err := r.BatchFolderURL("BI1")
	if err != nil {
		t.Fatalf("batch folder url failed: %v", err)
	}
	if got := folder.String(); got != "http://files.example.com/dcma-batches/BI1" {
		t.Errorf("got %s", got)
	}
}

func TestLockFolder(t *testing.T) {
	r, root := newResolver(t)

	lock, err := r.LockFolder("BI1")
	if err != nil {
		t.Fatalf("lock folder failed: %v", err)
	}
	if want := filepath.Join(root, "local", "thread-pool-lock", "BI1"); lock != want {
		t.Errorf("got %s, want %s", lock, want)
	}
	if _, err := os.Stat(lock); !os.IsNotExist(err) {
		t.Error("lock marker must not be created by the resolver")
	}
}

func TestScriptFiles(t *testing.T) {
	r, root := newResolver(t)

	got, err := r.ValidationScript("BC4")
	if err != nil {
		t.Fatalf("validation script failed: %v", err)
	}
	if want := filepath.Join(root, "classes", "BC4", "scripts", "ScriptValidation.java"); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestProjectFiles(t *testing.T) {
	r, _ := newResolver(t)

	names, err := r.ProjectFiles("BC1", "Invoice")
	if err != nil || len(names) != 0 {
		t.Fatalf("missing folder: got %v, %v", names, err)
	}

	dir, err := r.ProjectFolder("BC1", "Invoice", true)
	if err != nil {
		t.Fatalf("project folder failed: %v", err)
	}
	for _, name := range []string{"b.rsp", "a.rsp"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}

	names, err = r.ProjectFiles("BC1", "Invoice")
	if err != nil {
		t.Fatalf("project files failed: %v", err)
	}
	if !slices.Equal(names, []string{"a.rsp", "b.rsp"}) {
		t.Errorf("got %v", names)
	}

	if _, err := r.ProjectFiles("BC1", "../Invoice"); !errors.Is(err, batch.ErrInvalidArgument) {
		t.Errorf("traversal: got %v", err)
	}
}

func TestDocTypeFolders(t *testing.T) {
	r, root := newResolver(t)

	folders, err := r.DocTypeFolders("BC1", "Invoice")
	if err != nil {
		t.Fatalf("doc type folders failed: %v", err)
	}
	cfg := r.Config()
	want := []string{
		filepath.Join(root, "classes", "BC1", cfg.ProjectFileBaseFolder, "Invoice"),
		filepath.Join(root, "classes", "BC1", cfg.Names.SearchSample, "Invoice"),
		filepath.Join(root, "classes", "BC1", cfg.Names.ImageMagickBase, "Invoice"),
	}
	if !slices.Equal(folders, want) {
		t.Errorf("got %v, want %v", folders, want)
	}

	if _, err := r.DocTypeFolders("BC1", ""); err == nil {
		t.Error("expected error for empty document type")
	}
}

func TestWebServicesFolder(t *testing.T) {
	r, _ := newResolver(t)

	dir, err := r.WebServicesFolder(true)
	if err != nil {
		t.Fatalf("web services folder failed: %v", err)
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("not absolute: %s", dir)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("directory not created: %v", err)
	}
}
