package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"golang.org/x/net/html"
)

type container struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

type opfPackage struct {
	Manifest []struct {
		ID        string `xml:"id,attr"`
		Href      string `xml:"href,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"manifest>item"`
	Spine []struct {
		IDRef string `xml:"idref,attr"`
	} `xml:"spine>itemref"`
}

// epubText reads chapters in spine order.
func (e *FileExtractor) epubText(ctx context.Context, data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open epub: %w", err)
	}
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	var c container
	if err := decodeXML(files, "META-INF/container.xml", &c); err != nil {
		return "", err
	}
	if len(c.Rootfiles) == 0 {
		return "", fmt.Errorf("epub container lists no rootfile")
	}
	opfPath := c.Rootfiles[0].FullPath

	var pkg opfPackage
	if err := decodeXML(files, opfPath, &pkg); err != nil {
		return "", err
	}
	hrefs := make(map[string]string, len(pkg.Manifest))
	for _, item := range pkg.Manifest {
		hrefs[item.ID] = item.Href
	}

	base := path.Dir(opfPath)
	var chapters []string
	for _, ref := range pkg.Spine {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		href, ok := hrefs[ref.IDRef]
		if !ok {
			continue
		}
		name := path.Clean(path.Join(base, href))
		f, ok := files[name]
		if !ok {
			continue
		}
		// Zip entries open independently, so an abandoned chapter does not
		// block the next one.
		text, status := e.runUnit(ctx, name, func() (string, error) {
			rc, err := f.Open()
			if err != nil {
				return "", err
			}
			defer rc.Close()
			return htmlText(rc)
		})
		if status == unitDone && text != "" {
			chapters = append(chapters, text)
		}
	}
	return strings.Join(chapters, "\n\n"), nil
}

func decodeXML(files map[string]*zip.File, name string, v any) error {
	f, ok := files[name]
	if !ok {
		return fmt.Errorf("epub missing %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()
	if err := xml.NewDecoder(rc).Decode(v); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "blockquote": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "tr": true, "br": true, "hr": true,
}

// htmlText returns the visible text of an XHTML document with block
// elements separated by blank lines so paragraphs survive.
func htmlText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var paragraphs []string
	var cur strings.Builder
	flush := func() {
		if s := strings.Join(strings.Fields(cur.String()), " "); s != "" {
			paragraphs = append(paragraphs, s)
		}
		cur.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			cur.WriteString(n.Data)
			cur.WriteByte(' ')
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "head", "nav":
				return
			}
		}
		block := n.Type == html.ElementNode && blockElements[n.Data]
		if block {
			flush()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			flush()
		}
	}
	walk(doc)
	flush()

	return strings.Join(paragraphs, "\n\n"), nil
}
