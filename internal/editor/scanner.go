package editor

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/goliatone/go-pagekit/internal/sections"
)

// DefaultMaxChildElements bounds how many child elements a text candidate may
// have before it is treated as a structural container.
const DefaultMaxChildElements = 2

var defaultTextTags = []atom.Atom{
	atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
	atom.P, atom.Span, atom.Blockquote, atom.Figcaption,
}

var defaultButtonClasses = []string{"btn", "button", "cta"}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithMarkerAttr sets the explicit edit marker attribute.
func WithMarkerAttr(name string) ScannerOption {
	return func(s *Scanner) {
		if strings.TrimSpace(name) != "" {
			s.markerAttr = strings.TrimSpace(name)
		}
	}
}

// WithMaxChildElements sets the child element limit for text candidates.
func WithMaxChildElements(n int) ScannerOption {
	return func(s *Scanner) {
		if n >= 0 {
			s.maxChildren = n
		}
	}
}

// WithLocator sets the locator used to assign rectangles.
func WithLocator(locator Locator) ScannerOption {
	return func(s *Scanner) {
		if locator != nil {
			s.locator = locator
		}
	}
}

// Scanner classifies the elements of one rendered section into editable
// regions. It never modifies the tree it reads.
type Scanner struct {
	markerAttr  string
	maxChildren int
	textTags    map[atom.Atom]bool
	locator     Locator
}

func NewScanner(opts ...ScannerOption) *Scanner {
	s := &Scanner{
		markerAttr:  sections.EditPathAttr,
		maxChildren: DefaultMaxChildElements,
		textTags:    make(map[atom.Atom]bool, len(defaultTextTags)),
		locator:     DefaultFlowLocator(),
	}
	for _, tag := range defaultTextTags {
		s.textTags[tag] = true
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Parse reads an HTML fragment into a detached root node.
func Parse(r io.Reader) (*html.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(r, body)
	if err != nil {
		return nil, fmt.Errorf("editor: parse fragment: %w", err)
	}
	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	for _, node := range nodes {
		root.AppendChild(node)
	}
	return root, nil
}

// ScanHTML parses fragment and scans it.
func (s *Scanner) ScanHTML(fragment string, viewport Viewport) ([]Region, error) {
	root, err := Parse(strings.NewReader(fragment))
	if err != nil {
		return nil, err
	}
	return s.Scan(root, viewport), nil
}

// Scan enumerates candidates in four passes: explicit markers, text
// elements, images, then call-to-action buttons and links. Regions come back
// in document order with rectangles assigned.
func (s *Scanner) Scan(root *html.Node, viewport Viewport) []Region {
	covered := map[*html.Node]bool{}
	var regions []Region

	walk(root, func(n *html.Node) {
		path := strings.TrimSpace(attr(n, s.markerAttr))
		if path == "" {
			return
		}
		covered[n] = true
		regions = append(regions, s.region(n, s.kindOf(n), path, true))
	})

	walk(root, func(n *html.Node) {
		if !s.textTags[n.DataAtom] || covered[n] || hasCoveredAncestor(n, covered) || insideButton(n) {
			return
		}
		if textContent(n) == "" || childElements(n) > s.maxChildren {
			return
		}
		covered[n] = true
		regions = append(regions, s.region(n, RegionText, "", false))
	})

	walk(root, func(n *html.Node) {
		if n.DataAtom != atom.Img || covered[n] || strings.TrimSpace(attr(n, "src")) == "" {
			return
		}
		covered[n] = true
		regions = append(regions, s.region(n, RegionImage, "", false))
	})

	walk(root, func(n *html.Node) {
		if !isButtonLike(n) || covered[n] || textContent(n) == "" {
			return
		}
		covered[n] = true
		regions = append(regions, s.region(n, RegionButton, "", false))
	})

	sortByDocumentOrder(root, regions)
	for i := range regions {
		regions[i].Order = i
	}
	if s.locator != nil {
		s.locator.Locate(regions, viewport)
	}
	return regions
}

func (s *Scanner) region(n *html.Node, kind RegionKind, path string, explicit bool) Region {
	region := Region{
		Kind:     kind,
		Tag:      n.Data,
		Path:     path,
		Explicit: explicit,
		Node:     n,
	}
	if kind == RegionImage {
		region.Src = strings.TrimSpace(attr(n, "src"))
	} else {
		region.Text = textContent(n)
	}
	return region
}

func (s *Scanner) kindOf(n *html.Node) RegionKind {
	switch {
	case n.DataAtom == atom.Img:
		return RegionImage
	case isButtonLike(n):
		return RegionButton
	default:
		return RegionText
	}
}

func walk(n *html.Node, visit func(*html.Node)) {
	if n.Type == html.ElementNode {
		visit(n)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walk(child, visit)
	}
}

func sortByDocumentOrder(root *html.Node, regions []Region) {
	position := map[*html.Node]int{}
	next := 0
	walk(root, func(n *html.Node) {
		position[n] = next
		next++
	})
	// Insertion sort keeps pass order for equal positions.
	for i := 1; i < len(regions); i++ {
		for j := i; j > 0 && position[regions[j].Node] < position[regions[j-1].Node]; j-- {
			regions[j], regions[j-1] = regions[j-1], regions[j]
		}
	}
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
			b.WriteByte(' ')
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func childElements(n *html.Node) int {
	count := 0
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode {
			count++
		}
	}
	return count
}

func hasCoveredAncestor(n *html.Node, covered map[*html.Node]bool) bool {
	for parent := n.Parent; parent != nil; parent = parent.Parent {
		if covered[parent] {
			return true
		}
	}
	return false
}

func insideButton(n *html.Node) bool {
	for parent := n.Parent; parent != nil; parent = parent.Parent {
		if isButtonLike(parent) {
			return true
		}
	}
	return false
}

func isButtonLike(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if n.DataAtom == atom.Button || strings.EqualFold(attr(n, "role"), "button") {
		return true
	}
	if n.DataAtom != atom.A {
		return false
	}
	for _, class := range strings.Fields(strings.ToLower(attr(n, "class"))) {
		for _, marker := range defaultButtonClasses {
			if strings.Contains(class, marker) {
				return true
			}
		}
	}
	return false
}
