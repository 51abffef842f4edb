package migrate

import "strings"

// ActionReferenceSubstitution maps one deprecated action reference literal to
// its replacement. Matching is exact-literal; no version parsing happens.
type ActionReferenceSubstitution struct {
	Deprecated  string
	Replacement string
}

var actionReferenceSubstitutions = []ActionReferenceSubstitution{
	{Deprecated: "uses: github/codeql-action/init@v2", Replacement: "uses: github/codeql-action/init@v3"},
	{Deprecated: "uses: github/codeql-action/analyze@v2", Replacement: "uses: github/codeql-action/analyze@v3"},
	{Deprecated: "uses: github/codeql-action/autobuild@v2", Replacement: "uses: github/codeql-action/autobuild@v3"},
}

// ApplyActionUpdates rewrites every deprecated action reference in the
// provided workflow content. Content already referencing newer versions is
// returned unchanged, so repeated application is a no-op.
func ApplyActionUpdates(workflowContent string) string {
	updatedContent := workflowContent
	for _, substitution := range actionReferenceSubstitutions {
		updatedContent = strings.ReplaceAll(updatedContent, substitution.Deprecated, substitution.Replacement)
	}
	return updatedContent
}
