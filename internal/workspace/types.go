package workspace

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/praxos/cortex/internal/types"
)

// Section is one named region of a workspace document.
type Section struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Workspace is a structured mutable document holding the current cognitive
// context for one scope. Sections keep their insertion order so the
// rendered document stays stable across partial updates.
type Workspace struct {
	Scope     string    `json:"scope"`
	Sections  []Section `json:"sections"`
	UpdatedAt time.Time `json:"updated_at"`
}

// frontMatter is the YAML header of a rendered workspace document.
type frontMatter struct {
	Scope     string    `yaml:"scope"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// New creates an empty workspace for a scope.
func New(scope string) *Workspace {
	return &Workspace{
		Scope:     scope,
		UpdatedAt: time.Now().UTC(),
	}
}

// Section returns the content of a named section.
func (w *Workspace) Section(name string) (string, bool) {
	for _, s := range w.Sections {
		if s.Name == name {
			return s.Content, true
		}
	}
	return "", false
}

// SetSection replaces the content of a named section, appending it when
// absent. Other sections are untouched.
func (w *Workspace) SetSection(name, content string) {
	content = strings.TrimSpace(content)
	for i, s := range w.Sections {
		if s.Name == name {
			w.Sections[i].Content = content
			w.UpdatedAt = time.Now().UTC()
			return
		}
	}
	w.Sections = append(w.Sections, Section{Name: name, Content: content})
	w.UpdatedAt = time.Now().UTC()
}

// AppendToSection adds a line to a named section, creating it when absent.
func (w *Workspace) AppendToSection(name, line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	existing, ok := w.Section(name)
	if !ok || existing == "" {
		w.SetSection(name, line)
		return
	}
	w.SetSection(name, existing+"\n"+line)
}

// SectionNames returns section names in document order.
func (w *Workspace) SectionNames() []string {
	names := make([]string, len(w.Sections))
	for i, s := range w.Sections {
		names[i] = s.Name
	}
	return names
}

// Validate checks the workspace invariants.
func (w *Workspace) Validate() error {
	if strings.TrimSpace(w.Scope) == "" {
		return types.NewError(ErrCodeScopeInvalid, "workspace scope cannot be empty")
	}
	seen := make(map[string]bool, len(w.Sections))
	for _, s := range w.Sections {
		if strings.TrimSpace(s.Name) == "" {
			return types.NewError(ErrCodeScopeInvalid, "workspace section name cannot be empty")
		}
		if seen[s.Name] {
			return types.NewError(ErrCodeScopeInvalid,
				fmt.Sprintf("duplicate workspace section: %s", s.Name))
		}
		seen[s.Name] = true
	}
	return nil
}

// Render serializes the workspace to its on-disk markdown form: a YAML
// front matter block followed by one "## Name" heading per section.
// Render is deterministic, so Parse(Render(w)) reproduces w and two
// renders of the same workspace are byte-identical.
func (w *Workspace) Render() ([]byte, error) {
	header, err := yaml.Marshal(frontMatter{Scope: w.Scope, UpdatedAt: w.UpdatedAt})
	if err != nil {
		return nil, types.WrapError(ErrCodeWorkspaceIO, "failed to render workspace header", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n")
	for _, s := range w.Sections {
		b.WriteString("\n## ")
		b.WriteString(s.Name)
		b.WriteString("\n")
		if s.Content != "" {
			b.WriteString("\n")
			b.WriteString(s.Content)
			b.WriteString("\n")
		}
	}
	return []byte(b.String()), nil
}

// Parse reconstructs a workspace from its rendered form.
func Parse(data []byte) (*Workspace, error) {
	text := string(data)
	if !strings.HasPrefix(text, "---\n") {
		return nil, types.NewError(ErrCodeWorkspaceIO, "workspace document missing front matter")
	}
	rest := text[len("---\n"):]
	end := strings.Index(rest, "---\n")
	if end < 0 {
		return nil, types.NewError(ErrCodeWorkspaceIO, "workspace front matter not terminated")
	}

	var header frontMatter
	if err := yaml.Unmarshal([]byte(rest[:end]), &header); err != nil {
		return nil, types.WrapError(ErrCodeWorkspaceIO, "failed to parse workspace header", err)
	}

	w := &Workspace{Scope: header.Scope, UpdatedAt: header.UpdatedAt}

	body := rest[end+len("---\n"):]
	var name string
	var content []string
	flush := func() {
		if name == "" {
			return
		}
		w.Sections = append(w.Sections, Section{
			Name:    name,
			Content: strings.TrimSpace(strings.Join(content, "\n")),
		})
	}
	for _, line := range strings.Split(body, "\n") {
		if heading, ok := strings.CutPrefix(line, "## "); ok {
			flush()
			name = strings.TrimSpace(heading)
			content = content[:0]
			continue
		}
		if name != "" {
			content = append(content, line)
		}
	}
	flush()

	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

// Clone returns a deep copy. Coordinators hand clones to specialists so a
// specialist can never mutate the live document.
func (w *Workspace) Clone() *Workspace {
	sections := make([]Section, len(w.Sections))
	copy(sections, w.Sections)
	return &Workspace{Scope: w.Scope, Sections: sections, UpdatedAt: w.UpdatedAt}
}
