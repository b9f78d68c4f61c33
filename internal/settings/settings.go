// Package settings holds the immutable per-run design request and its
// canonical JSON record form.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned by Load when the settings file does not exist.
var ErrNotFound = errors.New("settings file not found")

// InvalidError describes a settings field that failed validation.
type InvalidError struct {
	Field  string
	Reason string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid settings: %s %s", e.Field, e.Reason)
}

// MalformedError describes a settings record that could not be decoded.
type MalformedError struct {
	Path   string
	Field  string
	Reason string
}

func (e *MalformedError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("malformed settings %s: field %s %s", e.Path, e.Field, e.Reason)
	}
	return fmt.Sprintf("malformed settings %s: %s", e.Path, e.Reason)
}

// RunSettings is the identity and scope of one design run. It is immutable
// once a run starts and round-trips losslessly through its JSON record.
type RunSettings struct {
	DesignPath            string   `json:"design_path"`
	BinderName            string   `json:"binder_name"`
	StartingPDB           string   `json:"starting_pdb"`
	Chains                []string `json:"chains"`
	TargetHotspotResidues []string `json:"target_hotspot_residues"`
	Lengths               [2]int   `json:"lengths"`
	NumberOfFinalDesigns  int      `json:"number_of_final_designs"`
}

// requiredFields are the keys every settings record must carry.
var requiredFields = []string{
	"design_path",
	"binder_name",
	"starting_pdb",
	"chains",
	"target_hotspot_residues",
	"lengths",
	"number_of_final_designs",
}

// New validates the parameters and builds a RunSettings.
func New(designPath, binderName, startingPDB string, chains, hotspots []string, minLen, maxLen, finalDesigns int) (*RunSettings, error) {
	switch {
	case designPath == "":
		return nil, &InvalidError{Field: "design_path", Reason: "must not be empty"}
	case binderName == "":
		return nil, &InvalidError{Field: "binder_name", Reason: "must not be empty"}
	case startingPDB == "":
		return nil, &InvalidError{Field: "starting_pdb", Reason: "must not be empty"}
	case len(chains) == 0:
		return nil, &InvalidError{Field: "chains", Reason: "must not be empty"}
	case minLen < 1:
		return nil, &InvalidError{Field: "lengths", Reason: "minimum length must be positive"}
	case minLen > maxLen:
		return nil, &InvalidError{Field: "lengths", Reason: fmt.Sprintf("minimum %d exceeds maximum %d", minLen, maxLen)}
	case finalDesigns < 1:
		return nil, &InvalidError{Field: "number_of_final_designs", Reason: "must be at least 1"}
	}

	return &RunSettings{
		DesignPath:            designPath,
		BinderName:            binderName,
		StartingPDB:           startingPDB,
		Chains:                chains,
		TargetHotspotResidues: hotspots,
		Lengths:               [2]int{minLen, maxLen},
		NumberOfFinalDesigns:  finalDesigns,
	}, nil
}

// Default builds a RunSettings with the standard defaults: target chain A,
// binder lengths 30-110, two final designs.
func Default(designPath, binderName, startingPDB string) (*RunSettings, error) {
	return New(designPath, binderName, startingPDB, []string{"A"}, nil, 30, 110, 2)
}

// MinLength returns the lower bound of the sampled binder length range.
func (s *RunSettings) MinLength() int { return s.Lengths[0] }

// MaxLength returns the upper bound of the sampled binder length range.
func (s *RunSettings) MaxLength() int { return s.Lengths[1] }

// SettingsFile returns the path the run persists its settings record to.
func (s *RunSettings) SettingsFile() string {
	return filepath.Join(s.DesignPath, s.BinderName+".json")
}

// Save writes the canonical JSON record. Save and Load are exact inverses.
func (s *RunSettings) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// Load reads a settings record from disk. It returns ErrNotFound when the
// file is absent and a MalformedError when required fields are missing or
// have the wrong type.
func Load(path string) (*RunSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &MalformedError{Path: path, Reason: err.Error()}
	}
	for _, field := range requiredFields {
		if _, ok := raw[field]; !ok {
			return nil, &MalformedError{Path: path, Field: field, Reason: "is missing"}
		}
	}

	var lengths []int
	if err := json.Unmarshal(raw["lengths"], &lengths); err != nil || len(lengths) != 2 {
		return nil, &MalformedError{Path: path, Field: "lengths", Reason: "must be a 2-element integer array"}
	}

	var s RunSettings
	if err := json.Unmarshal(data, &s); err != nil {
		reason := err.Error()
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, &MalformedError{Path: path, Field: typeErr.Field, Reason: "has wrong type " + typeErr.Value}
		}
		return nil, &MalformedError{Path: path, Reason: reason}
	}

	return &s, nil
}
