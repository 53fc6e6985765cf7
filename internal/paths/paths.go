// Package paths resolves batch instance and batch class scoped storage locations.
// Every folder and retrieval URL used by the service is derived here from a single
// Config so callers never hard-code a layout.
package paths

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/JaimeStill/dcma/internal/batch"
)

// Role names a logical folder beneath a batch class folder.
type Role string

const (
	RoleScript                   Role = "script"
	RoleScriptConfig             Role = "script_config"
	RoleCmisPluginMapping        Role = "cmis_plugin_mapping"
	RoleFileboundPluginMapping   Role = "filebound_plugin_mapping"
	RoleDbExportMapping          Role = "db_export_mapping"
	RoleSearchSample             Role = "search_sample"
	RoleSearchIndex              Role = "search_index"
	RoleImageMagickBase          Role = "image_magick_base"
	RoleFuzzyDBIndex             Role = "fuzzy_db_index"
	RoleTestKVExtraction         Role = "test_kv_extraction"
	RoleTestTable                Role = "test_table"
	RoleTestAdvancedKVExtraction Role = "test_advanced_kv_extraction"
	RoleAdvancedTestTable        Role = "advanced_test_table"
	RoleTemp                     Role = "temp"
	RoleThreadPoolLock           Role = "thread_pool_lock"
	RoleBaseSampleFDLock         Role = "base_sample_fd_lock"
)

var errBadSegment = errors.New("must be a single non-empty path segment")

func (n *Names) byRole() map[Role]string {
	return map[Role]string{
		RoleScript:                   n.Script,
		RoleScriptConfig:             n.ScriptConfig,
		RoleCmisPluginMapping:        n.CmisPluginMapping,
		RoleFileboundPluginMapping:   n.FileboundPluginMapping,
		RoleDbExportMapping:          n.DbExportMapping,
		RoleSearchSample:             n.SearchSample,
		RoleSearchIndex:              n.SearchIndex,
		RoleImageMagickBase:          n.ImageMagickBase,
		RoleFuzzyDBIndex:             n.FuzzyDBIndex,
		RoleTestKVExtraction:         n.TestKVExtraction,
		RoleTestTable:                n.TestTable,
		RoleTestAdvancedKVExtraction: n.TestAdvancedKVExtraction,
		RoleAdvancedTestTable:        n.AdvancedTestTable,
		RoleTemp:                     n.Temp,
		RoleThreadPoolLock:           n.ThreadPoolLock,
		RoleBaseSampleFDLock:         n.BaseSampleFDLock,
	}
}

// Resolver maps identifiers and folder roles to absolute paths and URLs.
// It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	cfg   Config
	names map[Role]string
	base  *url.URL
	scan  *url.URL
}

// New creates a Resolver from a finalized Config. Relative roots are made absolute
// against the working directory.
func New(cfg Config) (*Resolver, error) {
	for _, root := range []*string{
		&cfg.LocalFolder,
		&cfg.BaseFolder,
		&cfg.ExportFolder,
		&cfg.WebScannerFolder,
		&cfg.EmailFolder,
		&cfg.UploadBatchFolder,
		&cfg.WebServicesFolder,
	} {
		abs, err := filepath.Abs(*root)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", *root, err)
		}
		*root = abs
	}

	base, err := url.Parse(cfg.BaseHTTPURL)
	if err != nil {
		return nil, fmt.Errorf("parse base_http_url: %w", err)
	}

	scan, err := url.Parse(cfg.WebScannerURL)
	if err != nil {
		return nil, fmt.Errorf("parse web_scanner_url: %w", err)
	}

	return &Resolver{
		cfg:   cfg,
		names: cfg.Names.byRole(),
		base:  base,
		scan:  scan,
	}, nil
}

// Config returns the resolved configuration.
func (r *Resolver) Config() Config {
	return r.cfg
}

// FolderName returns the configured folder name for role.
func (r *Resolver) FolderName(role Role) (string, error) {
	name, ok := r.names[role]
	if !ok {
		return "", batch.Invalid("folder name", "", "unknown folder role "+string(role))
	}
	return name, nil
}

// ClassFolder returns the root folder of a batch class.
func (r *Resolver) ClassFolder(classID string, createDir bool) (string, error) {
	if err := checkID("class folder", classID); err != nil {
		return "", err
	}
	return ensure(filepath.Join(r.cfg.BaseFolder, classID), createDir)
}

// Folder returns the folder serving role for a batch class, creating it when
// createDir is set.
func (r *Resolver) Folder(classID string, role Role, createDir bool) (string, error) {
	if err := checkID("folder", classID); err != nil {
		return "", err
	}
	name, err := r.FolderName(role)
	if err != nil {
		return "", err
	}
	return ensure(filepath.Join(r.cfg.BaseFolder, classID, name), createDir)
}

// Named returns a folder beneath a batch class folder using an arbitrary
// directory name, the general form of Folder.
func (r *Resolver) Named(classID, directory string, createDir bool) (string, error) {
	if err := checkID("folder", classID); err != nil {
		return "", err
	}
	if err := checkSegment(directory); err != nil {
		return "", batch.Invalid("folder", "", "directory "+err.Error())
	}
	return ensure(filepath.Join(r.cfg.BaseFolder, classID, directory), createDir)
}

// ScriptFile returns the path of a named script within the batch class script folder.
func (r *Resolver) ScriptFile(classID, script string) (string, error) {
	dir, err := r.Folder(classID, RoleScript, false)
	if err != nil {
		return "", err
	}
	if err := checkSegment(script); err != nil {
		return "", batch.Invalid("script file", "", "script "+err.Error())
	}
	return filepath.Join(dir, script), nil
}

// ValidationScript returns the path of the batch class validation script.
func (r *Resolver) ValidationScript(classID string) (string, error) {
	return r.ScriptFile(classID, r.cfg.Names.ValidationScript)
}

// AddNewTableScript returns the path of the batch class add-new-table script.
func (r *Resolver) AddNewTableScript(classID string) (string, error) {
	return r.ScriptFile(classID, r.cfg.Names.AddNewTableScript)
}

// SerializableFile returns the path of the serialized batch class definition.
func (r *Resolver) SerializableFile(classID string) (string, error) {
	dir, err := r.ClassFolder(classID, false)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, r.cfg.Names.BatchClassSerializable), nil
}

// ProjectFolder returns the project file folder for a document type of a batch class.
func (r *Resolver) ProjectFolder(classID, documentType string, createDir bool) (string, error) {
	if err := checkID("project folder", classID); err != nil {
		return "", err
	}
	if err := checkSegment(documentType); err != nil {
		return "", batch.Invalid("project folder", "", "document type "+err.Error())
	}
	return ensure(
		filepath.Join(r.cfg.BaseFolder, classID, r.cfg.ProjectFileBaseFolder, documentType),
		createDir,
	)
}

// ProjectFiles lists the file names in the project folder of a document
// type, sorted. A missing folder yields no names.
func (r *Resolver) ProjectFiles(classID, documentType string) ([]string, error) {
	dir, err := r.ProjectFolder(classID, documentType, false)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, batch.IO("list project files", "", err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// DocTypeFolders returns every per document type folder of a batch class:
// the project folder and the search and image classification sample folders.
func (r *Resolver) DocTypeFolders(classID, documentType string) ([]string, error) {
	project, err := r.ProjectFolder(classID, documentType, false)
	if err != nil {
		return nil, err
	}
	folders := []string{project}
	for _, role := range []Role{RoleSearchSample, RoleImageMagickBase} {
		dir, err := r.Folder(classID, role, false)
		if err != nil {
			return nil, err
		}
		folders = append(folders, filepath.Join(dir, documentType))
	}
	return folders, nil
}

// BatchFolder returns the working folder of a batch instance.
func (r *Resolver) BatchFolder(batchID string, createDir bool) (string, error) {
	if err := checkID("batch folder", batchID); err != nil {
		return "", err
	}
	return ensure(filepath.Join(r.cfg.LocalFolder, batchID), createDir)
}

// ArtifactPath returns the absolute path of a file inside a batch folder.
func (r *Resolver) ArtifactPath(batchID, fileName string) (string, error) {
	if err := checkID("artifact", batchID); err != nil {
		return "", err
	}
	if err := checkSegment(fileName); err != nil {
		return "", batch.Invalid("artifact", batchID, "file name "+err.Error())
	}
	return filepath.Join(r.cfg.LocalFolder, batchID, fileName), nil
}

// ExportFolder returns the export folder of a batch instance.
func (r *Resolver) ExportFolder(batchID string, createDir bool) (string, error) {
	if err := checkID("export folder", batchID); err != nil {
		return "", err
	}
	return ensure(filepath.Join(r.cfg.ExportFolder, batchID), createDir)
}

// TempFolder returns the shared temporary folder beneath the local folder.
func (r *Resolver) TempFolder(createDir bool) (string, error) {
	return ensure(filepath.Join(r.cfg.LocalFolder, r.cfg.Names.Temp), createDir)
}

// LockRoot returns the thread pool lock folder that holds per-batch lock markers.
func (r *Resolver) LockRoot(createDir bool) (string, error) {
	return ensure(filepath.Join(r.cfg.LocalFolder, r.cfg.Names.ThreadPoolLock), createDir)
}

// LockFolder returns the lock marker path for a batch instance. The marker is
// not created here; see store.System.Lock.
func (r *Resolver) LockFolder(batchID string) (string, error) {
	if err := checkID("lock folder", batchID); err != nil {
		return "", err
	}
	root, err := r.LockRoot(true)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, batchID), nil
}

// SampleLockFolder returns the base sample folder lock marker path.
func (r *Resolver) SampleLockFolder() string {
	return filepath.Join(r.cfg.BaseFolder, r.cfg.Names.BaseSampleFDLock)
}

// WebScannerFolder returns a named web scanner image folder.
func (r *Resolver) WebScannerFolder(name string, createDir bool) (string, error) {
	if name == "" {
		return ensure(r.cfg.WebScannerFolder, createDir)
	}
	if err := checkSegment(name); err != nil {
		return "", batch.Invalid("web scanner folder", "", "name "+err.Error())
	}
	return ensure(filepath.Join(r.cfg.WebScannerFolder, name), createDir)
}

// WebScannerURL returns the retrieval URL of scanned web scanner images.
func (r *Resolver) WebScannerURL() *url.URL {
	u := *r.scan
	return &u
}

// EmailFolder returns the inbound email folder.
func (r *Resolver) EmailFolder() string {
	return r.cfg.EmailFolder
}

// WebServicesFolder returns the working folder of web service requests.
func (r *Resolver) WebServicesFolder(createDir bool) (string, error) {
	return ensure(r.cfg.WebServicesFolder, createDir)
}

// UploadBatchFolder returns the upload batch folder.
func (r *Resolver) UploadBatchFolder() string {
	return r.cfg.UploadBatchFolder
}

// BatchFolderURL returns the retrieval URL of a batch folder.
func (r *Resolver) BatchFolderURL(batchID string) (*url.URL, error) {
	if err := checkID("batch url", batchID); err != nil {
		return nil, err
	}
	return r.base.JoinPath(batchID), nil
}

// URL returns the retrieval URL of an artifact in a batch folder.
func (r *Resolver) URL(batchID, fileName string) (*url.URL, error) {
	if err := checkID("artifact url", batchID); err != nil {
		return nil, err
	}
	if err := checkSegment(fileName); err != nil {
		return nil, batch.Invalid("artifact url", batchID, "file name "+err.Error())
	}
	return r.base.JoinPath(batchID, fileName), nil
}

// ZipSwitch reports whether batch documents are stored compressed.
func (r *Resolver) ZipSwitch() bool {
	return r.cfg.ZipSwitch
}

func ensure(dir string, createDir bool) (string, error) {
	if !createDir {
		return dir, nil
	}
	// MkdirAll succeeds when a concurrent caller created the directory first.
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", batch.IO("create directory", "", err)
	}
	return dir, nil
}

func checkID(op, id string) error {
	if err := checkSegment(id); err != nil {
		return batch.Invalid(op, "", fmt.Sprintf("identifier %q %s", id, err.Error()))
	}
	return nil
}

func checkSegment(s string) error {
	if s == "" || s == "." || s == ".." ||
		strings.ContainsAny(s, `/\`) || strings.Contains(s, "..") {
		return errBadSegment
	}
	return nil
}
