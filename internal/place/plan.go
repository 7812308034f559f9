package place

// RenamePlan is the fully-resolved outcome of collision resolution for one
// document. A dry run produces exactly the same plan as a live run; the only
// difference is whether Executed is set.
type RenamePlan struct {
	// SourcePath is the document as it exists on disk now.
	SourcePath string
	// CandidateName is the synthesized filename before collision resolution.
	CandidateName string
	// TargetDir is the directory the file will live in.
	TargetDir string
	// FinalName is the collision-free filename, possibly carrying a numeric
	// disambiguator ("statement-1.pdf").
	FinalName string
	// FinalPath is TargetDir joined with FinalName.
	FinalPath string
	// NoOp is true when the file already sits at FinalPath under exactly the
	// right name, so there is nothing to do.
	NoOp bool
	// CaseOnly is true when source and destination are the same file on a
	// case-insensitive filesystem and only the spelling of the name changes.
	CaseOnly bool
	// Executed is true when the filesystem was actually mutated.
	Executed bool
}
