// Package markdown renders richtext section bodies with goldmark and reads or
// writes page documents stored as markdown files with YAML front matter.
package markdown
