package workspace

// Default section names shared by the coordinator and its specialists.
// Deployments may add sections freely; these are the ones the stock
// coordination cycle reads and writes.
const (
	SectionUnderstanding = "Current Understanding"
	SectionRetrieved     = "Retrieved Knowledge"
	SectionNotes         = "Working Notes"
	SectionOpenQuestions = "Open Questions"

	// SectionReferences lists knowledge entry ids the workspace context
	// relies on. Created on demand, not part of the template.
	SectionReferences = "Knowledge References"
)

// Template returns the fresh workspace a scope starts from, both on first
// use and after an episode reset.
func Template(scope string) *Workspace {
	w := New(scope)
	w.Sections = []Section{
		{Name: SectionUnderstanding},
		{Name: SectionRetrieved},
		{Name: SectionNotes},
		{Name: SectionOpenQuestions},
	}
	return w
}
