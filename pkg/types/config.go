package types

// ScanConfig holds settings for the citation extraction stage.
type ScanConfig struct {
	// Macros lists the citation macro names the scanner recognizes.
	// Each name also matches its alphabetic suffixes and starred form,
	// so "cite" covers \citep, \citet, \citeauthor*, and the rest of
	// the natbib family. Empty means the built-in default list.
	Macros []string `json:"macros" yaml:"macros"`
}

// LoadConfig holds settings for the bibliography loading stage.
type LoadConfig struct {
	// BibFileName is the file name matched when locating bibliography
	// files under the project directory (default "reference.bib").
	BibFileName string `json:"bib_file" yaml:"bib_file"`
}

// ValidateConfig holds settings for the reconciliation stage.
type ValidateConfig struct {
	// Conference selects the required-field profile (e.g. "CVPR", "CHI").
	Conference string `json:"conference" yaml:"conference"`

	// IncludeUnused controls whether unused entries are also checked
	// for required fields. Default true: all entries are validated.
	IncludeUnused bool `json:"include_unused" yaml:"include_unused"`
}

// OutputConfig holds settings for the report writing stage.
type OutputConfig struct {
	// Dir is the directory the output files are written to
	// (default: the project directory).
	Dir string `json:"dir" yaml:"dir"`

	// UsedFile is the output file name for used entries
	// (default "used_sorted_references.bib").
	UsedFile string `json:"used_file" yaml:"used_file"`

	// UnusedFile is the output file name for unused entries
	// (default "unused_sorted_references.bib").
	UnusedFile string `json:"unused_file" yaml:"unused_file"`
}

// IndexConfig holds settings for the reconciliation index.
type IndexConfig struct {
	// MaxResults is the default maximum number of search results
	// (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// ProfilesConfig holds settings for conference profile loading.
type ProfilesConfig struct {
	// Path is an optional YAML file of user-defined conference
	// profiles merged over the built-ins.
	Path string `json:"path" yaml:"path"`
}

// PipelineConfig groups all stage configurations for one run.
type PipelineConfig struct {
	Citation     ScanConfig     `json:"citation" yaml:"citation"`
	Bibliography LoadConfig     `json:"bibliography" yaml:"bibliography"`
	Validation   ValidateConfig `json:"validation" yaml:"validation"`
	Output       OutputConfig   `json:"output" yaml:"output"`
	Index        IndexConfig    `json:"index" yaml:"index"`
	Profiles     ProfilesConfig `json:"profiles" yaml:"profiles"`
}
