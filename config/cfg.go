package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"slices"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"rtflow/geom"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	ImagesConfig struct {
		Enable bool `yaml:"enable"`
		// Pixels per cell, used to convert image sizes into cells.
		CellWidth  float64 `yaml:"cell_width" validate:"gt=0"`
		CellHeight float64 `yaml:"cell_height" validate:"gt=0"`
		// Upper bound of element size in cells, 0 is unbounded.
		MaxWidth  float64 `yaml:"max_width" validate:"gte=0"`
		MaxHeight float64 `yaml:"max_height" validate:"gte=0"`
		// Size in cells of images which cannot be decoded or loaded.
		BrokenWidth  float64 `yaml:"broken_width" validate:"gte=1"`
		BrokenHeight float64 `yaml:"broken_height" validate:"gte=1"`
	}

	NotesConfig struct {
		Include   bool     `yaml:"include"`
		BodyNames []string `yaml:"bodies" validate:"dive,required"`
	}

	DocumentConfig struct {
		Format       SourceFormat `yaml:"format"`
		Normalize    bool         `yaml:"normalize"`
		HeadingSpace int          `yaml:"heading_space" validate:"gte=0"`
		MaxFileSize  int64        `yaml:"max_file_size" validate:"gte=0"`
		Images       ImagesConfig `yaml:"images"`
		Notes        NotesConfig  `yaml:"notes"`
	}

	ContainerConfig struct {
		Name     string         `yaml:"name" validate:"required"`
		Width    float64        `yaml:"width" validate:"gt=0"`
		Height   float64        `yaml:"height" validate:"gt=0"`
		Padding  geom.Thickness `yaml:"padding"`
		MaxLines int            `yaml:"max_lines" validate:"gte=0"`
	}

	LayoutConfig struct {
		LineHeight        float64           `yaml:"line_height" validate:"gte=1"`
		Containers        []ContainerConfig `yaml:"containers" validate:"required,min=1,unique=Name,dive"`
		Grow              bool              `yaml:"grow"`
		MaxContainers     int               `yaml:"max_containers" validate:"min=1"`
		AllowEmptyContent bool              `yaml:"allow_empty_content"`
		MeasureBottomless bool              `yaml:"measure_bottomless"`
		SuppressTopMargin bool              `yaml:"suppress_top_margin"`
		TextTrimming      bool              `yaml:"text_trimming"`
	}

	TextSurfaceConfig struct {
		Border    bool   `yaml:"border"`
		Highlight string `yaml:"highlight_color"`
	}

	PNGSurfaceConfig struct {
		CellWidth  int     `yaml:"cell_width" validate:"min=4"`
		CellHeight int     `yaml:"cell_height" validate:"min=8"`
		FontSize   float64 `yaml:"font_size" validate:"gt=0"`
		FontPath   string  `yaml:"font_path,omitempty" sanitize:"assure_file_access"`
		Background string  `yaml:"background" validate:"hexcolor"`
		Foreground string  `yaml:"foreground" validate:"hexcolor"`
		Highlight  string  `yaml:"highlight" validate:"hexcolor"`
	}

	RenderConfig struct {
		Surface               SurfaceKind       `yaml:"surface"`
		PageNameTemplate      string            `yaml:"page_name_template"`
		FileNameTransliterate bool              `yaml:"file_name_transliterate"`
		Text                  TextSurfaceConfig `yaml:"text"`
		PNG                   PNGSurfaceConfig  `yaml:"png"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Document  DocumentConfig `yaml:"document"`
		Layout    LayoutConfig   `yaml:"layout"`
		Render    RenderConfig   `yaml:"render"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above
	PageNameTemplateFieldName TemplateFieldName = "page_name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(PageNameTemplateFieldName)),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// only fields we defined are accepted, so no yaml.Unmarshal here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration expands configuration template to get defaults, then
// superimposes values from the file at path (if any) and validates result.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		// empty document does not decode, defaults still have to be checked
		return cfg, gencfg.Validate(cfg)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare returns expanded configuration template.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}

// Container returns configuration of i-th container of the chain. Chain may
// be longer than configured list, last configured container is repeated.
func (c *LayoutConfig) Container(i int) ContainerConfig {
	if i < len(c.Containers) {
		return c.Containers[i]
	}
	cc := c.Containers[len(c.Containers)-1]
	for {
		cc.Name = fmt.Sprintf("%s-%d", cc.Name, i)
		if !slices.ContainsFunc(c.Containers, func(k ContainerConfig) bool { return k.Name == cc.Name }) {
			return cc
		}
	}
}
