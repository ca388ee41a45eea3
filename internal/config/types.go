package config

// File is the top-level configuration structure parsed from pipeline YAML.
type File struct {
	Pipeline Pipeline `yaml:"pipeline"`
}

// Pipeline defines the full pipeline: metadata, defaults, and stages.
type Pipeline struct {
	Name     string        `yaml:"name"`
	Workdir  string        `yaml:"workdir"`
	Defaults StageDefaults `yaml:"defaults"`
	Stages   []Stage       `yaml:"stages"`
}

// StageDefaults holds default values applied to stages that don't specify
// their own.
type StageDefaults struct {
	Timeout  string `yaml:"timeout"`
	Compress string `yaml:"compress"`
}

// Stage defines a single pipeline stage: downloads and expansions to
// materialize, the external command to run, and the outputs it promises.
type Stage struct {
	ID        string            `yaml:"id"`
	Command   string            `yaml:"command"`
	Timeout   string            `yaml:"timeout"`
	Compress  string            `yaml:"compress"`
	Downloads []Download        `yaml:"downloads"`
	Expand    []Expansion       `yaml:"expand"`
	Inputs    map[string]string `yaml:"inputs"`
	Outputs   map[string]string `yaml:"outputs"`
}

// Download declares a remote resource and its workdir-relative cache path.
type Download struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
	Dest string `yaml:"dest"`
}

// Expansion declares an archive to extract into a directory.
type Expansion struct {
	Archive string `yaml:"archive"`
	Dest    string `yaml:"dest"`
}
