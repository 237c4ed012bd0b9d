package domain

// Gate decides whether a previous download suppresses fetching a row.
// The check is advisory: losing a race only costs a redundant fetch, since
// the final move replaces the file atomically.
type Gate struct {
	index         FileIndex
	redownloadAll bool
}

// NewGate creates a gate over the final download directory.
func NewGate(index FileIndex, redownloadAll bool) *Gate {
	return &Gate{index: index, redownloadAll: redownloadAll}
}

// ShouldSkip returns true when re-downloading is off and the file exists.
func (g *Gate) ShouldSkip(name string) bool {
	if g.redownloadAll {
		return false
	}
	return g.index.Exists(name)
}
