// Package scan discovers installed applications.
//
// DirScanner walks application roots and understands two layouts: macOS
// .app bundles (metadata from Contents/Info.plist) and freedesktop .desktop
// entries. Every Scan returns a fresh, deduplicated snapshot sorted by
// name. Watcher turns filesystem changes under the roots into debounced
// rescan notifications.
package scan
