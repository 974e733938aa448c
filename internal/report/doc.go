// Package report renders assembled annotation records.
//
// This package contains writers for different output formats:
//   - SimpleWriter: plain text for terminal display
//   - JSONWriter: structured JSON for tool integration
//   - MarkdownWriter: a Markdown page for a docs folder
//   - HTMLWriter: a standalone HTML page
//
// Every writer renders Entries, the display form of a record built by
// Section.Entries. Placeholders for missing attributes, the hiding of
// "not applicable" values and source links are decided there once.
package report
