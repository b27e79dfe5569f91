package main

import (
	"bytes"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"storefront-acquisition/pkg/registry"
)

// WorkerData feeds the file templates.
type WorkerData struct {
	Module       string
	PackageName  string
	TaskType     string
	DisplayName  string
	Description  string
	Timeout      string
	InputFields  []Field
	OutputFields []Field
}

// Field is one struct field derived from a schema property.
type Field struct {
	Name     string
	Type     string
	JSONName string
	Required bool
	Comment  string
}

// Tag renders the field's json struct tag.
func (f Field) Tag() string {
	if f.Required {
		return fmt.Sprintf("`json:%q`", f.JSONName)
	}
	return fmt.Sprintf("`json:%q`", f.JSONName+",omitempty")
}

type GenerateOptions struct {
	Root   string
	Module string
	Force  bool
}

// Generate writes the worker package for activity and returns its directory
// and the files written. Existing files are kept unless Force is set.
func Generate(activity registry.Activity, opts GenerateOptions) (string, []string, error) {
	if err := activity.Validate(); err != nil {
		return "", nil, err
	}

	data := newWorkerData(activity, opts.Module)
	dir := filepath.Join(opts.Root, directoryFor(activity.Category), activity.TaskType)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, fmt.Errorf("create %s: %w", dir, err)
	}

	var written []string
	for _, name := range []string{"config.go", "models.go", "handler.go", "handler_test.go"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil && !opts.Force {
			continue
		}
		src, err := render(name, data)
		if err != nil {
			return "", nil, err
		}
		if err := os.WriteFile(path, src, 0o644); err != nil {
			return "", nil, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return dir, written, nil
}

func newWorkerData(activity registry.Activity, module string) WorkerData {
	return WorkerData{
		Module:       module,
		PackageName:  packageName(activity.TaskType),
		TaskType:     activity.TaskType,
		DisplayName:  activity.DisplayName,
		Description:  activity.Description,
		Timeout:      activity.Timeout,
		InputFields:  schemaFields(activity.InputSchema),
		OutputFields: schemaFields(activity.OutputSchema),
	}
}

func render(name string, data WorkerData) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", name, err)
	}
	return src, nil
}

// schemaFields lists the top-level properties of an object schema in name
// order. Properties named in "required" lose omitempty.
func schemaFields(schema map[string]interface{}) []Field {
	props, _ := schema["properties"].(map[string]interface{})
	required := map[string]bool{}
	if list, ok := schema["required"].([]interface{}); ok {
		for _, r := range list {
			if s, ok := r.(string); ok {
				required[s] = true
			}
		}
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]Field, 0, len(names))
	for _, name := range names {
		details, _ := props[name].(map[string]interface{})
		f := Field{
			Name:     exportedName(name),
			Type:     goType(details),
			JSONName: name,
			Required: required[name],
		}
		if desc, ok := details["description"].(string); ok {
			f.Comment = desc
		}
		fields = append(fields, f)
	}
	return fields
}

// goType maps a JSON schema property onto a Go type. References and unions
// fall back to json.RawMessage so the handler decides how to read them.
func goType(details map[string]interface{}) string {
	switch details["type"] {
	case "string":
		return "string"
	case "integer":
		return "int"
	case "number":
		return "float64"
	case "boolean":
		return "bool"
	case "object":
		if extra, ok := details["additionalProperties"].(map[string]interface{}); ok {
			return "map[string]" + goType(extra)
		}
		return "map[string]interface{}"
	case "array":
		if items, ok := details["items"].(map[string]interface{}); ok {
			return "[]" + goType(items)
		}
		return "[]interface{}"
	}
	return "json.RawMessage"
}

func exportedName(prop string) string {
	parts := strings.FieldsFunc(prop, func(r rune) bool { return r == '_' || r == '-' || r == '.' })
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(strings.ToUpper(p[:1]) + p[1:])
	}
	name := b.String()
	if strings.HasSuffix(name, "Id") {
		name = strings.TrimSuffix(name, "Id") + "ID"
	}
	return name
}

func packageName(taskType string) string {
	return strings.ToLower(strings.NewReplacer("-", "", "_", "", ".", "").Replace(taskType))
}

func directoryFor(category string) string {
	if category == "" {
		return "misc"
	}
	return strings.ToLower(strings.ReplaceAll(category, " ", "-"))
}

func usesRawJSON(fields []Field) bool {
	for _, f := range fields {
		if strings.Contains(f.Type, "json.RawMessage") {
			return true
		}
	}
	return false
}

var templates = template.Must(template.New("worker").Funcs(template.FuncMap{
	"rawJSON": func(d WorkerData) bool { return usesRawJSON(d.InputFields) || usesRawJSON(d.OutputFields) },
}).Parse(configTemplate + modelsTemplate + handlerTemplate + handlerTestTemplate))
