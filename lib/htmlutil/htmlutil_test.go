package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestNormalizeText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<p>  hello
		world  </p>`,
	))
	require.NoError(t, err)
	require.Equal(t, "hello world", NormalizeText(doc.Find("p")))
}

func TestNextSiblingText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<p><strong>看診日期：</strong> <span></span> 2025/12/17 上午</p>`,
	))
	require.NoError(t, err)
	nodes := doc.Find("strong").Nodes
	require.Len(t, nodes, 1)
	require.Equal(t, "2025/12/17 上午", NextSiblingText(nodes[0]))
}
