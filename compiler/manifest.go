package compiler

import (
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"

	"github.com/c360studio/exorules/catalog"
	"github.com/c360studio/exorules/emit"
)

// Manifest records what a build read and produced. It carries no run id
// or timestamp, so identical inputs give an identical manifest.
type Manifest struct {
	Generator  string             `json:"generator"`
	Target     string             `json:"target"`
	Output     string             `json:"output,omitempty"`
	OutputHash string             `json:"output_hash"`
	Stats      Stats              `json:"stats"`
	Files      []catalog.FileInfo `json:"files"`
}

// NewManifest describes a rendered result.
func NewManifest(target emit.Target, output string, res *Result) *Manifest {
	files := res.Files
	if files == nil {
		files = []catalog.FileInfo{}
	}
	return &Manifest{
		Generator:  "exorules",
		Target:     string(target),
		Output:     output,
		OutputHash: res.OutputHash,
		Stats:      res.Stats,
		Files:      files,
	}
}

// Marshal returns the RFC 8785 canonical JSON encoding.
func (m *Manifest) Marshal() ([]byte, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	out, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize manifest: %w", err)
	}
	return append(out, '\n'), nil
}
