package tracker

// TrackedContext is the single in-memory record of the document currently
// believed to be focused. The zero value is not meaningful; use
// emptyContext(). The controller owns the only instance and overwrites it in
// place on each relevant transition; history is never kept.
//
// A non-TabNone TabID denotes the tab most recently confirmed by a successful
// lookup. The tab is not guaranteed to still exist.
type TrackedContext struct {
	TabID TabID
	URL   string
	Title string
}

func emptyContext() TrackedContext {
	return TrackedContext{TabID: TabNone}
}

// Tracking reports whether a tab is currently being followed.
func (c TrackedContext) Tracking() bool {
	return c.TabID != TabNone
}
