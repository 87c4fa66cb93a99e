package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// NormalizeText trims a selection's text down to a single line of
// printable characters with collapsed inner whitespace.
func NormalizeText(sel *goquery.Selection) string {
	return NormalizeString(sel.Text())
}

func NormalizeString(s string) string {
	s = removeNonPrintable(s)
	s = strings.Trim(s, " \t\n")
	return innerWhitespace.ReplaceAllString(s, " ")
}

// NextSiblingText walks forward from a node through its siblings and
// returns the first non-empty chunk of text it encounters. Used to
// read the value that follows an inline label element.
func NextSiblingText(node *html.Node) string {
	sibling := node.NextSibling
	for sibling != nil {
		text := NormalizeString(GetText(sibling))
		if text != "" {
			return text
		}
		sibling = sibling.NextSibling
	}
	return ""
}
