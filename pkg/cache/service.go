package cache

// RecentTracker remembers keys for a short window after they were marked.
// The dashboard uses it to highlight orders touched by push events.
type RecentTracker interface {
	// Mark records key as recently changed, restarting its window.
	Mark(key string)

	// Recent reports whether key was marked within the window.
	Recent(key string) bool
}
