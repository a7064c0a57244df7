package ansible

import "fmt"

// ModuleInfo is the json friendly description of a module used by listings.
type ModuleInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Source      string         `json:"source,omitempty"`
	Prompts     []Prompt       `json:"prompts"`
	Tasks       []string       `json:"tasks"`
	Handlers    []string       `json:"handlers,omitempty"`
	Vars        map[string]any `json:"vars,omitempty"`
}

func (m Module) Info() ModuleInfo {
	info := ModuleInfo{
		Name:        m.Name,
		Description: m.Description,
		Source:      m.Source,
		Prompts:     make([]Prompt, len(m.Prompts)),
		Tasks:       make([]string, len(m.Tasks)),
	}
	for i, p := range m.Prompts {
		p.Default = Plain(p.Default)
		info.Prompts[i] = p
	}
	for i, t := range m.Tasks {
		info.Tasks[i] = fmt.Sprintf("%s (%s)", t.Name, t.Module)
	}
	for _, h := range m.Handlers {
		info.Handlers = append(info.Handlers, fmt.Sprintf("%s (%s)", h.Name, h.Module))
	}
	if len(m.Vars) > 0 {
		info.Vars = Plain(m.Vars).(map[string]any)
	}
	return info
}
