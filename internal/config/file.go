package config

// MarksConfig lists extra dimension marks.
type MarksConfig struct {
	// Feet are extra feet marks, for example "’".
	Feet []string `yaml:"feet,omitempty"`

	// Inch are extra inch marks, for example "”".
	Inch []string `yaml:"inch,omitempty"`
}

// File represents the structure of the .floorscan configuration file.
// Every key is optional; command line flags take precedence.
type File struct {
	Method      string      `yaml:"method,omitempty"`
	Format      string      `yaml:"format,omitempty"`
	Concurrency int         `yaml:"concurrency,omitempty"`
	Batch       int         `yaml:"batch,omitempty"`
	Tolerance   float64     `yaml:"tolerance,omitempty"`
	FoldWidth   *bool       `yaml:"foldWidth,omitempty"`
	OutputDir   string      `yaml:"outputDir,omitempty"`
	Suffix      string      `yaml:"suffix,omitempty"`
	Marks       MarksConfig `yaml:"marks,omitempty"`
}
