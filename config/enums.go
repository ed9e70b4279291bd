package config

//go:generate go tool go-enum --marshal --names

// Source document format, auto means detection by name and content.
// ENUM(auto, text, markdown, fb2)
type SourceFormat int

// Drawing surface used to output pages.
// ENUM(text, png)
type SurfaceKind int

// Ext returns file extension of pages produced by surface, empty when pages
// are written to a single stream.
func (s SurfaceKind) Ext() string {
	switch s {
	case SurfaceKindPng:
		return ".png"
	case SurfaceKindText:
		return ".txt"
	default:
		// this should never happen
		panic("unsupported surface requested")
	}
}
