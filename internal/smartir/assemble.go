package smartir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"git.home.luguber.info/inful/irlisten/internal/combination"
)

// ErrIncompleteResult is returned by strict assembly when the off command was
// never captured.
var ErrIncompleteResult = errors.New("incomplete result")

// Assemble folds the flat key->code mapping into the final SmartIR document:
// the source description's fields plus the nested commands tree keyed by
// operation mode, fan mode, swing mode and temperature string, with absent
// axes flattening the corresponding nesting level away.
//
// In strict mode a missing off code yields ErrIncompleteResult. Lenient mode
// never fails: unlearned combinations become empty strings, so an aborted run
// can still emit a best-effort document.
func Assemble(spec *ClimateSpec, codes map[string]string, strict bool) (map[string]any, error) {
	off := codes[combination.OffKey]
	if strict && off == "" {
		return nil, fmt.Errorf("%w: off command was never captured", ErrIncompleteResult)
	}

	commands := map[string]any{combination.OffKey: off}
	for _, c := range spec.Space().Enumerate() {
		if c.Off {
			continue
		}
		insert(commands, c, codes[c.Key()])
	}

	doc := make(map[string]any, len(spec.extra)+9)
	for k, v := range spec.extra {
		doc[k] = v
	}
	doc[KeyController] = spec.Controller
	doc[KeyEncoding] = spec.Encoding
	doc[KeyMinTemperature] = spec.MinTemperature
	doc[KeyMaxTemperature] = spec.MaxTemperature
	doc[KeyPrecision] = spec.Precision
	if spec.OperationModes != nil {
		doc[KeyOperationModes] = spec.OperationModes
	}
	if spec.FanModes != nil {
		doc[KeyFanModes] = spec.FanModes
	}
	if spec.SwingModes != nil {
		doc[KeySwingModes] = spec.SwingModes
	}
	doc[KeyCommands] = commands
	return doc, nil
}

// insert walks the present axes in canonical order, creating intermediate
// nodes as needed, and sets the temperature leaf. Keeping the walk generic
// here is what keeps "axis may be omitted" out of every caller.
func insert(root map[string]any, c combination.Combination, code string) {
	node := root
	for _, level := range []string{c.OperationMode, c.FanMode, c.SwingMode} {
		if level == "" {
			continue
		}
		child, ok := node[level].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[level] = child
		}
		node = child
	}
	node[strconv.Itoa(c.Temperature)] = code
}

// WriteDocument writes the assembled document as indented JSON.
func WriteDocument(path string, doc map[string]any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result document: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write result document: %w", err)
	}
	return nil
}
