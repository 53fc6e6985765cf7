package paths

import (
	"fmt"
	"net/url"

	"github.com/JaimeStill/dcma/pkg/envvar"
)

// Config enumerates every recognized folder location and folder name.
// Roots are absolute directories; names are single path segments resolved
// beneath a batch class folder.
type Config struct {
	LocalFolder           string `toml:"local_folder"`
	BaseFolder            string `toml:"base_folder"`
	ExportFolder          string `toml:"export_folder"`
	BaseHTTPURL           string `toml:"base_http_url"`
	WebScannerFolder      string `toml:"web_scanner_folder"`
	WebScannerURL         string `toml:"web_scanner_url"`
	EmailFolder           string `toml:"email_folder"`
	UploadBatchFolder     string `toml:"upload_batch_folder"`
	WebServicesFolder     string `toml:"web_services_folder"`
	ProjectFileBaseFolder string `toml:"project_file_base_folder"`
	ZipSwitch             bool   `toml:"zip_switch"`

	Names Names `toml:"names"`
}

// Names holds the configurable folder and file names.
type Names struct {
	Script                   string `toml:"script"`
	ScriptConfig             string `toml:"script_config"`
	CmisPluginMapping        string `toml:"cmis_plugin_mapping"`
	FileboundPluginMapping   string `toml:"filebound_plugin_mapping"`
	DbExportMapping          string `toml:"db_export_mapping"`
	SearchSample             string `toml:"search_sample"`
	SearchIndex              string `toml:"search_index"`
	ImageMagickBase          string `toml:"image_magick_base"`
	FuzzyDBIndex             string `toml:"fuzzy_db_index"`
	TestKVExtraction         string `toml:"test_kv_extraction"`
	TestTable                string `toml:"test_table"`
	TestAdvancedKVExtraction string `toml:"test_advanced_kv_extraction"`
	AdvancedTestTable        string `toml:"advanced_test_table"`
	Temp                     string `toml:"temp"`
	ThreadPoolLock           string `toml:"thread_pool_lock"`
	BaseSampleFDLock         string `toml:"base_sample_fd_lock"`
	BatchClassSerializable   string `toml:"batch_class_serializable"`
	ValidationScript         string `toml:"validation_script"`
	AddNewTableScript        string `toml:"add_new_table_script"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	LocalFolder      string
	BaseFolder       string
	ExportFolder     string
	BaseHTTPURL      string
	WebScannerFolder string
	WebScannerURL    string
	EmailFolder      string
	WebServices      string
	ZipSwitch        string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		if err := c.loadEnv(env); err != nil {
			return err
		}
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	mergeString(&c.LocalFolder, overlay.LocalFolder)
	mergeString(&c.BaseFolder, overlay.BaseFolder)
	mergeString(&c.ExportFolder, overlay.ExportFolder)
	mergeString(&c.BaseHTTPURL, overlay.BaseHTTPURL)
	mergeString(&c.WebScannerFolder, overlay.WebScannerFolder)
	mergeString(&c.WebScannerURL, overlay.WebScannerURL)
	mergeString(&c.EmailFolder, overlay.EmailFolder)
	mergeString(&c.UploadBatchFolder, overlay.UploadBatchFolder)
	mergeString(&c.WebServicesFolder, overlay.WebServicesFolder)
	mergeString(&c.ProjectFileBaseFolder, overlay.ProjectFileBaseFolder)
	if overlay.ZipSwitch {
		c.ZipSwitch = true
	}
	c.Names.merge(&overlay.Names)
}

func (n *Names) merge(overlay *Names) {
	mergeString(&n.Script, overlay.Script)
	mergeString(&n.ScriptConfig, overlay.ScriptConfig)
	mergeString(&n.CmisPluginMapping, overlay.CmisPluginMapping)
	mergeString(&n.FileboundPluginMapping, overlay.FileboundPluginMapping)
	mergeString(&n.DbExportMapping, overlay.DbExportMapping)
	mergeString(&n.SearchSample, overlay.SearchSample)
	mergeString(&n.SearchIndex, overlay.SearchIndex)
	mergeString(&n.ImageMagickBase, overlay.ImageMagickBase)
	mergeString(&n.FuzzyDBIndex, overlay.FuzzyDBIndex)
	mergeString(&n.TestKVExtraction, overlay.TestKVExtraction)
	mergeString(&n.TestTable, overlay.TestTable)
	mergeString(&n.TestAdvancedKVExtraction, overlay.TestAdvancedKVExtraction)
	mergeString(&n.AdvancedTestTable, overlay.AdvancedTestTable)
	mergeString(&n.Temp, overlay.Temp)
	mergeString(&n.ThreadPoolLock, overlay.ThreadPoolLock)
	mergeString(&n.BaseSampleFDLock, overlay.BaseSampleFDLock)
	mergeString(&n.BatchClassSerializable, overlay.BatchClassSerializable)
	mergeString(&n.ValidationScript, overlay.ValidationScript)
	mergeString(&n.AddNewTableScript, overlay.AddNewTableScript)
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (c *Config) loadDefaults() {
	defaultString(&c.LocalFolder, "data/batches")
	defaultString(&c.BaseFolder, "data/batch-classes")
	defaultString(&c.ExportFolder, "data/export")
	defaultString(&c.BaseHTTPURL, "http://localhost:8080/dcma-batches")
	defaultString(&c.WebScannerFolder, "data/web-scanner")
	defaultString(&c.WebScannerURL, "http://localhost:8080/dcma-web-scanner")
	defaultString(&c.EmailFolder, "data/email")
	defaultString(&c.UploadBatchFolder, "data/upload-batch")
	defaultString(&c.WebServicesFolder, "data/web-services")
	defaultString(&c.ProjectFileBaseFolder, "project-files")

	n := &c.Names
	defaultString(&n.Script, "scripts")
	defaultString(&n.ScriptConfig, "script-config")
	defaultString(&n.CmisPluginMapping, "cmis-plugin-mapping")
	defaultString(&n.FileboundPluginMapping, "filebound-plugin-mapping")
	defaultString(&n.DbExportMapping, "db-export-plugin-mapping")
	defaultString(&n.SearchSample, "lucene-search-classification-sample")
	defaultString(&n.SearchIndex, "search-index")
	defaultString(&n.ImageMagickBase, "image-classification-sample")
	defaultString(&n.FuzzyDBIndex, "fuzzydb-index")
	defaultString(&n.TestKVExtraction, "test-extraction")
	defaultString(&n.TestTable, "test-table")
	defaultString(&n.TestAdvancedKVExtraction, "test-advanced-extraction")
	defaultString(&n.AdvancedTestTable, "advanced-test-table")
	defaultString(&n.Temp, "temp")
	defaultString(&n.ThreadPoolLock, "thread-pool-lock")
	defaultString(&n.BaseSampleFDLock, "sample-fd-lock")
	defaultString(&n.BatchClassSerializable, "batch-class.ser")
	defaultString(&n.ValidationScript, "ScriptValidation.java")
	defaultString(&n.AddNewTableScript, "ScriptAddNewTable.java")
}

func defaultString(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

func (c *Config) loadEnv(env *Env) error {
	envvar.String(&c.LocalFolder, env.LocalFolder)
	envvar.String(&c.BaseFolder, env.BaseFolder)
	envvar.String(&c.ExportFolder, env.ExportFolder)
	envvar.String(&c.BaseHTTPURL, env.BaseHTTPURL)
	envvar.String(&c.WebScannerFolder, env.WebScannerFolder)
	envvar.String(&c.WebScannerURL, env.WebScannerURL)
	envvar.String(&c.EmailFolder, env.EmailFolder)
	envvar.String(&c.WebServicesFolder, env.WebServices)
	return envvar.Bool(&c.ZipSwitch, env.ZipSwitch)
}

func (c *Config) validate() error {
	if _, err := url.ParseRequestURI(c.BaseHTTPURL); err != nil {
		return fmt.Errorf("invalid base_http_url: %w", err)
	}
	if _, err := url.ParseRequestURI(c.WebScannerURL); err != nil {
		return fmt.Errorf("invalid web_scanner_url: %w", err)
	}
	for role, name := range c.Names.byRole() {
		if err := checkSegment(name); err != nil {
			return fmt.Errorf("folder name %s: %w", role, err)
		}
	}
	return nil
}
