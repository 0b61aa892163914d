package anchor

import (
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/nao1215/wantedanchors/internal/model"
)

// ExtractIDs parses rendered HTML and returns the id attribute of every
// element, with underscores turned into spaces.
func ExtractIDs(content io.Reader) (model.AnchorSet, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	ids := model.AnchorSet{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if id := getAttr(n, "id"); id != "" {
				ids[model.DisplayName(id)] = struct{}{}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return ids, nil
}

// ExtractIDsString is ExtractIDs over a string.
func ExtractIDsString(content string) (model.AnchorSet, error) {
	return ExtractIDs(strings.NewReader(content))
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
