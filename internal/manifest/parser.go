package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Manifest file names that mark a build source directory.
const (
	AppletFile   = "dxapp.json"
	WorkflowFile = "dxworkflow.json"
)

// ReadFile reads name from srcDir.
func ReadFile(srcDir, name string) ([]byte, error) {
	path := filepath.Join(srcDir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, nil
}

// IsEmpty reports whether data holds nothing to validate: no bytes, only
// whitespace, or an empty JSON object.
func IsEmpty(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return true
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return false
	}
	return len(obj) == 0
}

// ParseWorkflow decodes a dxworkflow.json document. Duplicate keys, invalid
// JSON, and schema violations are reported as *Error.
func ParseWorkflow(data []byte) (*Workflow, error) {
	if err := parseChecked(data, WorkflowFile, SchemaWorkflow); err != nil {
		return nil, err
	}
	var w Workflow
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, parseError(WorkflowFile, err)
	}
	return &w, nil
}

// ParseApplet decodes a dxapp.json document.
func ParseApplet(data []byte) (*Applet, error) {
	if err := parseChecked(data, AppletFile, SchemaApplet); err != nil {
		return nil, err
	}
	var a Applet
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, parseError(AppletFile, err)
	}
	return &a, nil
}

// parseChecked runs the duplicate-key scan and the schema check.
func parseChecked(data []byte, file string, kind SchemaKind) error {
	if err := CheckDuplicateKeys(data); err != nil {
		return parseError(file, err)
	}

	result, err := Validate(kind, data)
	if err != nil {
		return parseError(file, err)
	}
	if !result.Valid {
		return &Error{File: file, Msg: "manifest does not match schema", Issues: result.Issues}
	}
	return nil
}

func parseError(file string, err error) *Error {
	return &Error{File: file, Msg: fmt.Sprintf("could not parse %s file as JSON", file), Err: err}
}

// CheckDuplicateKeys walks a JSON document and fails on the first object that
// repeats a key, at any nesting level. It also rejects trailing data.
func CheckDuplicateKeys(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := walkValue(dec, ""); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("unexpected data after top-level value")
	}
	return nil
}

func walkValue(dec *json.Decoder, path string) error {
	tok, err := nextToken(dec)
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil
	}

	switch delim {
	case '{':
		seen := make(map[string]bool)
		for dec.More() {
			keyTok, err := nextToken(dec)
			if err != nil {
				return err
			}
			key, ok := keyTok.(string)
			if !ok {
				return fmt.Errorf("object key at %s is not a string", displayPath(path))
			}
			if seen[key] {
				return fmt.Errorf("duplicate key %q in object at %s", key, displayPath(path))
			}
			seen[key] = true
			if err := walkValue(dec, path+"/"+key); err != nil {
				return err
			}
		}
	case '[':
		for i := 0; dec.More(); i++ {
			if err := walkValue(dec, fmt.Sprintf("%s/%d", path, i)); err != nil {
				return err
			}
		}
	}

	// Closing delimiter.
	_, err = nextToken(dec)
	return err
}

// nextToken is dec.Token with a premature end of input reported as such.
func nextToken(dec *json.Decoder) (json.Token, error) {
	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return nil, io.ErrUnexpectedEOF
	}
	return tok, err
}

func displayPath(path string) string {
	if path == "" {
		return "/"
	}
	return path
}
