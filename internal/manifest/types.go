package manifest

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Field names shared by manifests.
const (
	FieldDescription    = "description"
	FieldDeveloperNotes = "developerNotes"
)

// WorkflowKeys are the top-level dxworkflow.json keys forwarded to the platform.
// The documentation fields are accepted as well; see DocumentationKeys.
var WorkflowKeys = []string{"project", "name", "outputFolder", "stages"}

// DocumentationKeys are filled from readme files when absent.
var DocumentationKeys = []string{FieldDescription, FieldDeveloperNotes}

// StageKeys are the keys a workflow stage may carry.
var StageKeys = []string{"id", "input", "executable", "name", "folder"}

// Workflow is a decoded dxworkflow.json. Optional fields are nil when absent.
// Keys outside WorkflowKeys and DocumentationKeys are kept in Extra and are
// never serialized.
type Workflow struct {
	Project        *string
	Name           *string
	OutputFolder   *string
	Description    *string
	DeveloperNotes *string
	Stages         []Stage

	Extra map[string]json.RawMessage
}

// Stage is one entry of a workflow's stages array.
type Stage struct {
	ID         *string
	Executable *string
	Name       *string
	Folder     *string
	Input      map[string]any

	Extra map[string]json.RawMessage
}

type workflowFields struct {
	Project        *string `json:"project,omitempty"`
	Name           *string `json:"name,omitempty"`
	OutputFolder   *string `json:"outputFolder,omitempty"`
	Description    *string `json:"description,omitempty"`
	DeveloperNotes *string `json:"developerNotes,omitempty"`
	Stages         []Stage `json:"stages,omitempty"`
}

type stageFields struct {
	ID         *string        `json:"id,omitempty"`
	Executable *string        `json:"executable,omitempty"`
	Name       *string        `json:"name,omitempty"`
	Folder     *string        `json:"folder,omitempty"`
	Input      map[string]any `json:"input,omitempty"`
}

// UnmarshalJSON decodes the supported fields and collects the rest into Extra.
func (w *Workflow) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var f workflowFields
	if err := decodeNumbers(data, &f); err != nil {
		return err
	}
	*w = Workflow{
		Project:        f.Project,
		Name:           f.Name,
		OutputFolder:   f.OutputFolder,
		Description:    f.Description,
		DeveloperNotes: f.DeveloperNotes,
		Stages:         f.Stages,
		Extra:          extraFields(raw, WorkflowKeys, DocumentationKeys),
	}
	return nil
}

// Fields returns the object sent to the platform. A present but empty stage
// list is kept as an empty array.
func (w *Workflow) Fields() map[string]any {
	out := make(map[string]any)
	putString(out, "project", w.Project)
	putString(out, "name", w.Name)
	putString(out, "outputFolder", w.OutputFolder)
	putString(out, FieldDescription, w.Description)
	putString(out, FieldDeveloperNotes, w.DeveloperNotes)
	if w.Stages != nil {
		out["stages"] = w.Stages
	}
	return out
}

// MarshalJSON serializes Fields; Extra is dropped.
func (w Workflow) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.Fields())
}

// UnsupportedKeys returns the sorted names held in Extra.
func (w *Workflow) UnsupportedKeys() []string { return sortedKeys(w.Extra) }

// DropUnsupported clears Extra.
func (w *Workflow) DropUnsupported() { w.Extra = nil }

func (w *Workflow) HasDescription() bool       { return w.Description != nil }
func (w *Workflow) SetDescription(s string)    { w.Description = &s }
func (w *Workflow) HasDeveloperNotes() bool    { return w.DeveloperNotes != nil }
func (w *Workflow) SetDeveloperNotes(s string) { w.DeveloperNotes = &s }

// UnmarshalJSON decodes the supported stage fields and collects the rest into Extra.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var f stageFields
	if err := decodeNumbers(data, &f); err != nil {
		return err
	}
	*s = Stage{
		ID:         f.ID,
		Executable: f.Executable,
		Name:       f.Name,
		Folder:     f.Folder,
		Input:      f.Input,
		Extra:      extraFields(raw, StageKeys),
	}
	return nil
}

// MarshalJSON serializes the supported stage fields; Extra is dropped.
func (s Stage) MarshalJSON() ([]byte, error) {
	return json.Marshal(stageFields{
		ID:         s.ID,
		Executable: s.Executable,
		Name:       s.Name,
		Folder:     s.Folder,
		Input:      s.Input,
	})
}

// UnsupportedKeys returns the sorted names held in Extra.
func (s *Stage) UnsupportedKeys() []string { return sortedKeys(s.Extra) }

// Applet is a decoded dxapp.json. All keys are kept so platform fields such
// as runSpec and inputSpec pass through unchanged.
type Applet struct {
	Fields map[string]any
}

// UnmarshalJSON decodes the document with numbers preserved as json.Number.
func (a *Applet) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := decodeNumbers(data, &fields); err != nil {
		return err
	}
	a.Fields = fields
	return nil
}

// MarshalJSON serializes Fields.
func (a Applet) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Fields)
}

// String returns the string value of key, or "" when absent or not a string.
func (a *Applet) String(key string) string {
	s, _ := a.Fields[key].(string)
	return s
}

// Name returns the applet name.
func (a *Applet) Name() string { return a.String("name") }

// Version returns the version field, or "" when absent.
func (a *Applet) Version() string { return a.String("version") }

// SetVersion overrides the version field.
func (a *Applet) SetVersion(v string) { a.set("version", v) }

func (a *Applet) HasDescription() bool       { return a.has(FieldDescription) }
func (a *Applet) SetDescription(s string)    { a.set(FieldDescription, s) }
func (a *Applet) HasDeveloperNotes() bool    { return a.has(FieldDeveloperNotes) }
func (a *Applet) SetDeveloperNotes(s string) { a.set(FieldDeveloperNotes, s) }

func (a *Applet) has(key string) bool {
	_, ok := a.Fields[key]
	return ok
}

func (a *Applet) set(key string, v any) {
	if a.Fields == nil {
		a.Fields = make(map[string]any)
	}
	a.Fields[key] = v
}

// decodeNumbers unmarshals data keeping numbers as json.Number.
func decodeNumbers(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// extraFields returns the entries of raw whose keys are in none of the known sets.
func extraFields(raw map[string]json.RawMessage, known ...[]string) map[string]json.RawMessage {
	allowed := make(map[string]bool)
	for _, set := range known {
		for _, k := range set {
			allowed[k] = true
		}
	}
	var extra map[string]json.RawMessage
	for k, v := range raw {
		if allowed[k] {
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[k] = v
	}
	return extra
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func putString(out map[string]any, key string, v *string) {
	if v != nil {
		out[key] = *v
	}
}
