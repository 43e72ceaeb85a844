// Package section orchestrates portal generation: one user prompt fans out
// into four concurrent streaming generation requests, one per fixed section
// (dashboard, marketplace, nomad intelligence, community).
//
// The generator creates the placeholder session synchronously before any
// network call, then streams each section's text into its artifact through
// the session store. Sections fail independently; one errored request never
// disturbs its siblings. A failed request moves the artifact to the
// terminal failed status.
package section
