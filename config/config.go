// Package config provides configuration loading and management for exorules.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the complete exorules configuration
type Config struct {
	Catalog CatalogConfig `yaml:"catalog"`
	Emit    EmitConfig    `yaml:"emit"`
	Watch   WatchConfig   `yaml:"watch"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// CatalogConfig configures where rule files are read from
type CatalogConfig struct {
	// Dir is the directory holding rule-definition files
	Dir string `yaml:"dir" validate:"required"`
	// Include lists doublestar patterns relative to Dir (default: *.py, *.yaml, *.yml, *.json)
	Include []string `yaml:"include" validate:"dive,required"`
	// Exclude lists doublestar patterns relative to Dir
	Exclude []string `yaml:"exclude" validate:"dive,required"`
	// Workers bounds parallel extraction (0 = GOMAXPROCS)
	Workers int `yaml:"workers" validate:"gte=0,lte=256"`
}

// EmitConfig configures the generated output
type EmitConfig struct {
	// Target is the output language: go, java or json
	Target string `yaml:"target" validate:"required,oneof=go java json"`
	// Output is the generated file path (empty = stdout)
	Output string `yaml:"output"`
	// Manifest is an optional path for the canonical JSON build manifest
	Manifest string `yaml:"manifest"`
	// Package is the Go package clause of generated code
	Package string `yaml:"package" validate:"required,goident"`
	// FuncName is the generated Go registration function
	FuncName string `yaml:"func_name" validate:"required,goident"`
	// RuntimeImport is the import path of the exobio runtime package
	RuntimeImport string `yaml:"runtime_import" validate:"required"`
	// JavaPackage is the package of the generated Java class
	JavaPackage string `yaml:"java_package" validate:"required,javaident"`
	// JavaClass is the generated Java class name
	JavaClass string `yaml:"java_class" validate:"required,javaident,excludes=."`
}

// WatchConfig configures watch mode
type WatchConfig struct {
	// Debounce is how long to wait after the last change before recompiling
	Debounce time.Duration `yaml:"debounce"`
}

// MetricsConfig configures metrics export
type MetricsConfig struct {
	// Textfile is a node-exporter textfile path written after each run (empty = disabled)
	Textfile string `yaml:"textfile"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Dir:     "rulesets",
			Include: []string{"*.py", "*.yaml", "*.yml", "*.json"},
		},
		Emit: EmitConfig{
			Target:        "go",
			Package:       "constraints",
			FuncName:      "RegisterConstraints",
			RuntimeImport: "github.com/c360studio/exorules/exobio",
			JavaPackage:   "org.dce.ed.exobiology",
			JavaClass:     "ExobiologyDataConstraints",
		},
		Watch: WatchConfig{
			Debounce: 250 * time.Millisecond,
		},
	}
}

var (
	configValidate *validator.Validate
	javaNamePart   = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)
)

func init() {
	configValidate = validator.New()
	configValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = configValidate.RegisterValidation("goident", validateGoIdent)
	_ = configValidate.RegisterValidation("javaident", validateJavaIdent)
}

// validateGoIdent accepts a Go identifier that is not a keyword.
func validateGoIdent(fl validator.FieldLevel) bool {
	return token.IsIdentifier(fl.Field().String())
}

// validateJavaIdent accepts a dotted Java name such as org.example.Data.
func validateJavaIdent(fl validator.FieldLevel) bool {
	for _, part := range strings.Split(fl.Field().String(), ".") {
		if !javaNamePart.MatchString(part) {
			return false
		}
	}
	return true
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, len(verrs))
		for i, fe := range verrs {
			field := strings.TrimPrefix(fe.Namespace(), "Config.")
			if fe.Param() != "" {
				msgs[i] = fmt.Sprintf("%s: failed %s=%s (got %q)", field, fe.Tag(), fe.Param(), fmt.Sprint(fe.Value()))
			} else {
				msgs[i] = fmt.Sprintf("%s: failed %s (got %q)", field, fe.Tag(), fmt.Sprint(fe.Value()))
			}
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("invalid config: watch.debounce must not be negative")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.resolvePaths(filepath.Dir(path))
	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// resolvePaths makes relative file paths relative to base, the directory
// of the config file that declared them.
func (c *Config) resolvePaths(base string) {
	for _, p := range []*string{&c.Catalog.Dir, &c.Emit.Output, &c.Emit.Manifest, &c.Metrics.Textfile} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Catalog
	if other.Catalog.Dir != "" {
		c.Catalog.Dir = other.Catalog.Dir
	}
	if len(other.Catalog.Include) > 0 {
		c.Catalog.Include = other.Catalog.Include
	}
	if len(other.Catalog.Exclude) > 0 {
		c.Catalog.Exclude = other.Catalog.Exclude
	}
	if other.Catalog.Workers != 0 {
		c.Catalog.Workers = other.Catalog.Workers
	}

	// Emit
	mergeString(&c.Emit.Target, other.Emit.Target)
	mergeString(&c.Emit.Output, other.Emit.Output)
	mergeString(&c.Emit.Manifest, other.Emit.Manifest)
	mergeString(&c.Emit.Package, other.Emit.Package)
	mergeString(&c.Emit.FuncName, other.Emit.FuncName)
	mergeString(&c.Emit.RuntimeImport, other.Emit.RuntimeImport)
	mergeString(&c.Emit.JavaPackage, other.Emit.JavaPackage)
	mergeString(&c.Emit.JavaClass, other.Emit.JavaClass)

	// Watch
	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}

	// Metrics
	mergeString(&c.Metrics.Textfile, other.Metrics.Textfile)
}

func mergeString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}
