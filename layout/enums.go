package layout

//go:generate go tool go-enum --marshal --names

// Formatting state of a page node.
// ENUM(unformatted, formatted, needsReformat)
type PageState int
