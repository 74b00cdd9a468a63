package template

import (
	"encoding/json"
	"fmt"
)

// TemplateType represents the kind of submit request to generate
type TemplateType string

const (
	TypeShell   TemplateType = "shell"
	TypeArgv    TemplateType = "argv"
	TypeWorker  TemplateType = "worker"
	TypeScript  TemplateType = "script"
	TypeSimple  TemplateType = "simple"
	TypeBasic   TemplateType = "basic"
	TypePython  TemplateType = "python"
	TypeCommand TemplateType = "command"
)

// SubmitTemplate represents a submit request body. Command is either a
// shell string or an argv array, matching what the submit endpoint and
// CLI accept.
type SubmitTemplate struct {
	Command any    `json:"command"`
	Name    string `json:"name"`
	Task    string `json:"task,omitempty"`
}

// Generator provides template generation functionality
type Generator struct{}

// NewGenerator creates a new template generator
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate creates a submit request template for the given type and name
func (g *Generator) Generate(templateType TemplateType, name string) (*SubmitTemplate, error) {
	switch templateType {
	case TypeShell, TypeCommand:
		return g.generateShellTemplate(name), nil
	case TypeArgv:
		return g.generateArgvTemplate(name), nil
	case TypeWorker:
		return g.generateWorkerTemplate(name), nil
	case TypeScript, TypePython:
		return g.generateScriptTemplate(name), nil
	case TypeSimple, TypeBasic:
		return g.generateSimpleTemplate(name), nil
	default:
		return nil, fmt.Errorf("unknown template type: %s (supported: shell, argv, worker, script, simple)", templateType)
	}
}

// GenerateJSON creates a JSON representation of the template
func (g *Generator) GenerateJSON(templateType TemplateType, name string) ([]byte, error) {
	template, err := g.Generate(templateType, name)
	if err != nil {
		return nil, err
	}

	jsonData, err := json.MarshalIndent(template, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal template: %w", err)
	}

	return jsonData, nil
}

// GetSupportedTypes returns a list of all supported template types
func (g *Generator) GetSupportedTypes() []string {
	return []string{
		string(TypeShell),
		string(TypeArgv),
		string(TypeWorker),
		string(TypeScript),
		string(TypeSimple),
	}
}

func (g *Generator) generateShellTemplate(name string) *SubmitTemplate {
	return &SubmitTemplate{
		Command: "sh -c 'echo hello from " + name + "'",
		Name:    name,
	}
}

func (g *Generator) generateArgvTemplate(name string) *SubmitTemplate {
	return &SubmitTemplate{
		Command: []string{"echo", "hello", "from", name},
		Name:    name,
	}
}

func (g *Generator) generateWorkerTemplate(name string) *SubmitTemplate {
	return &SubmitTemplate{
		Command: []string{"./worker", "--queue", name, "--threads", "4"},
		Name:    name,
		Task:    "proctor.run",
	}
}

func (g *Generator) generateScriptTemplate(name string) *SubmitTemplate {
	return &SubmitTemplate{
		Command: []string{"python3", "scripts/" + name + ".py"},
		Name:    name,
	}
}

func (g *Generator) generateSimpleTemplate(name string) *SubmitTemplate {
	return &SubmitTemplate{
		Command: "echo 'Hello from " + name + "'",
		Name:    name,
	}
}
