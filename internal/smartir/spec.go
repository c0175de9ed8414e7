// Package smartir models the SmartIR climate JSON document: the source
// description that drives a learning run, and the assembled result with the
// captured command tree.
package smartir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/irlisten/internal/combination"
)

// Document keys of the SmartIR JSON schema.
const (
	KeyController     = "supportedController"
	KeyEncoding       = "commandsEncoding"
	KeyMinTemperature = "minTemperature"
	KeyMaxTemperature = "maxTemperature"
	KeyPrecision      = "precision"
	KeyOperationModes = "operationModes"
	KeyFanModes       = "fanModes"
	KeySwingModes     = "swingModes"
	KeyCommands       = "commands"
)

const (
	controllerBroadlink = "Broadlink"
	encodingBase64      = "Base64"
)

// ErrInvalidSpec marks malformed or unsupported climate descriptions. It is
// fatal and reported before any capture begins.
var ErrInvalidSpec = errors.New("invalid climate description")

// ClimateSpec is the immutable source description loaded from a SmartIR JSON
// file. Fields not interpreted here (manufacturer, supportedModels, ...) are
// carried through verbatim into the output document.
type ClimateSpec struct {
	Controller     string
	Encoding       string
	MinTemperature int
	MaxTemperature int
	Precision      float64
	OperationModes []string
	FanModes       []string
	SwingModes     []string

	sourcePath string
	extra      map[string]json.RawMessage
}

// LoadFile reads and validates a SmartIR climate JSON file.
func LoadFile(path string) (*ClimateSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	spec, err := Parse(data)
	if err != nil {
		return nil, err
	}
	spec.sourcePath = path
	return spec, nil
}

// Parse decodes and validates a SmartIR climate JSON document.
func Parse(data []byte) (*ClimateSpec, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}

	spec := &ClimateSpec{
		Precision: 1,
		extra:     make(map[string]json.RawMessage),
	}

	var err error
	if spec.Controller, err = requireString(raw, KeyController); err != nil {
		return nil, err
	}
	if spec.Encoding, err = requireString(raw, KeyEncoding); err != nil {
		return nil, err
	}
	if spec.MinTemperature, err = requireInt(raw, KeyMinTemperature); err != nil {
		return nil, err
	}
	if spec.MaxTemperature, err = requireInt(raw, KeyMaxTemperature); err != nil {
		return nil, err
	}
	if msg, ok := raw[KeyPrecision]; ok {
		if err := json.Unmarshal(msg, &spec.Precision); err != nil {
			return nil, fmt.Errorf("%w: field %s: %v", ErrInvalidSpec, KeyPrecision, err)
		}
	}
	if spec.OperationModes, err = optionalStringList(raw, KeyOperationModes); err != nil {
		return nil, err
	}
	if spec.FanModes, err = optionalStringList(raw, KeyFanModes); err != nil {
		return nil, err
	}
	if spec.SwingModes, err = optionalStringList(raw, KeySwingModes); err != nil {
		return nil, err
	}

	// Everything else is carried through to the output document untouched.
	// An incoming commands tree is discarded: the run rebuilds it in full.
	interpreted := map[string]struct{}{
		KeyController: {}, KeyEncoding: {}, KeyMinTemperature: {},
		KeyMaxTemperature: {}, KeyPrecision: {}, KeyOperationModes: {},
		KeyFanModes: {}, KeySwingModes: {}, KeyCommands: {},
	}
	for k, v := range raw {
		if _, ok := interpreted[k]; !ok {
			spec.extra[k] = v
		}
	}

	if err := spec.validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

func (s *ClimateSpec) validate() error {
	if s.Controller != controllerBroadlink {
		return fmt.Errorf("%w: controller %q not supported", ErrInvalidSpec, s.Controller)
	}
	if s.Encoding != encodingBase64 {
		return fmt.Errorf("%w: encoding %q not supported", ErrInvalidSpec, s.Encoding)
	}
	if s.MinTemperature > s.MaxTemperature {
		return fmt.Errorf("%w: minTemperature %d exceeds maxTemperature %d",
			ErrInvalidSpec, s.MinTemperature, s.MaxTemperature)
	}
	if s.Precision <= 0 {
		return fmt.Errorf("%w: precision must be positive, got %v", ErrInvalidSpec, s.Precision)
	}
	for _, axis := range []struct {
		key   string
		modes []string
	}{
		{KeyOperationModes, s.OperationModes},
		{KeyFanModes, s.FanModes},
		{KeySwingModes, s.SwingModes},
	} {
		seen := make(map[string]struct{}, len(axis.modes))
		for _, m := range axis.modes {
			if m == "" {
				return fmt.Errorf("%w: %s contains an empty mode name", ErrInvalidSpec, axis.key)
			}
			if _, dup := seen[m]; dup {
				return fmt.Errorf("%w: %s contains duplicate mode %q", ErrInvalidSpec, axis.key, m)
			}
			seen[m] = struct{}{}
		}
	}
	return nil
}

// SourcePath returns the path the description was loaded from, or "" when
// parsed from memory.
func (s *ClimateSpec) SourcePath() string {
	return s.sourcePath
}

// HasModes reports whether any mode axis is populated. A description with no
// modes at all still yields the off command, but nothing else; callers warn
// rather than fail.
func (s *ClimateSpec) HasModes() bool {
	return len(s.OperationModes) > 0 || len(s.FanModes) > 0 || len(s.SwingModes) > 0
}

// HasOperationMode reports whether m is one of the declared operation modes.
func (s *ClimateSpec) HasOperationMode(m string) bool {
	for _, om := range s.OperationModes {
		if om == m {
			return true
		}
	}
	return false
}

// precisionStep derives the integer temperature step. Sub-degree precision
// collapses to whole-degree steps, matching the consumer's integer keys.
func (s *ClimateSpec) precisionStep() int {
	step := int(s.Precision)
	if step < 1 {
		step = 1
	}
	return step
}

// TemperatureSteps returns the ordered temperature points
// {min, min+precision, ...} clamped to maxTemperature.
func (s *ClimateSpec) TemperatureSteps() []int {
	steps := make([]int, 0, s.MaxTemperature-s.MinTemperature+1)
	for t := s.MinTemperature; t <= s.MaxTemperature; t += s.precisionStep() {
		steps = append(steps, t)
	}
	return steps
}

// Space returns the combination space spanned by this description.
func (s *ClimateSpec) Space() combination.Space {
	return combination.Space{
		OperationModes: s.OperationModes,
		FanModes:       s.FanModes,
		SwingModes:     s.SwingModes,
		Temperatures:   s.TemperatureSteps(),
	}
}

// OutputPath derives the result file path next to the source file, stamped
// with the given time: <stem>_YYYYMMDD_HHMMSS.json.
func (s *ClimateSpec) OutputPath(now time.Time) string {
	dir := filepath.Dir(s.sourcePath)
	stem := strings.TrimSuffix(filepath.Base(s.sourcePath), filepath.Ext(s.sourcePath))
	return filepath.Join(dir, fmt.Sprintf("%s_%s.json", stem, now.Format("20060102_150405")))
}

func requireString(raw map[string]json.RawMessage, key string) (string, error) {
	msg, ok := raw[key]
	if !ok {
		return "", fmt.Errorf("%w: missing mandatory field %s", ErrInvalidSpec, key)
	}
	var v string
	if err := json.Unmarshal(msg, &v); err != nil {
		return "", fmt.Errorf("%w: field %s: %v", ErrInvalidSpec, key, err)
	}
	return v, nil
}

func requireInt(raw map[string]json.RawMessage, key string) (int, error) {
	msg, ok := raw[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing mandatory field %s", ErrInvalidSpec, key)
	}
	var v int
	if err := json.Unmarshal(msg, &v); err != nil {
		return 0, fmt.Errorf("%w: field %s: %v", ErrInvalidSpec, key, err)
	}
	return v, nil
}

func optionalStringList(raw map[string]json.RawMessage, key string) ([]string, error) {
	msg, ok := raw[key]
	if !ok {
		return nil, nil
	}
	var v []string
	if err := json.Unmarshal(msg, &v); err != nil {
		return nil, fmt.Errorf("%w: field %s: %v", ErrInvalidSpec, key, err)
	}
	return v, nil
}
