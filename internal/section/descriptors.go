package section

import "fmt"

// Descriptor identifies one fixed portal section.
type Descriptor struct {
	ID          string
	DisplayName string
}

// descriptors is the fixed ordered section set. Identical across all
// sessions; every artifact id corresponds to exactly one entry.
var descriptors = []Descriptor{
	{ID: "dashboard", DisplayName: "Dashboard"},
	{ID: "marketplace", DisplayName: "Verified Marketplace"},
	{ID: "nomad", DisplayName: "Nomad Intelligence"},
	{ID: "community", DisplayName: "Community Q&A"},
}

// Descriptors returns the fixed ordered section list.
func Descriptors() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors)
	return out
}

// styleDirective is the system instruction shared by all section requests.
// It describes the desired visual output; the model returns a single HTML
// fragment rendered inside a sandboxed frame.
const styleDirective = `You generate one self-contained HTML fragment for a section of a digital nomad web portal.
Rules:
- Return HTML only. No markdown, no commentary, no code fences.
- Inline all styling in a <style> block. Dark slate background (#0f172a), emerald accents, rounded cards, generous spacing, system-ui font stack.
- Use realistic, concrete content for the requested section. No lorem ipsum.
- No external scripts, stylesheets, fonts or images. No <script> tags.
- The fragment is rendered inside an isolated iframe; it must look complete on its own.`

// sectionPrompt composes the per-section request text from the section's
// display name and the user's original prompt.
func sectionPrompt(d Descriptor, prompt string) string {
	return fmt.Sprintf(
		"Generate the %q section of the portal for this request: %s",
		d.DisplayName, prompt)
}
