package domain

import (
	"fmt"

	"github.com/beevik/etree"
)

// xlinkNS is the namespace of the href attributes that point at
// static assets.
const xlinkNS = "http://www.w3.org/1999/xlink"

// staticAssetTags are the elements whose xlink:href references a
// binary asset of the document.
var staticAssetTags = map[string]bool{
	"graphic":                       true,
	"media":                         true,
	"inline-graphic":                true,
	"supplementary-material":        true,
	"inline-supplementary-material": true,
}

// AssetRef ties an asset id (the value of an xlink:href) to the XML
// node carrying it, so the reference can be rewritten in place.
type AssetRef struct {
	ID   string
	el   *etree.Element
	attr string
}

// SetHref rewrites the reference to uri.
func (r AssetRef) SetHref(uri string) {
	for i := range r.el.Attr {
		if attrFullKey(r.el.Attr[i]) == r.attr {
			r.el.Attr[i].Value = uri
			return
		}
	}
}

// ParsedXML is a parsed document plus its static asset references in
// document order. Parsing never loads DTDs nor touches the network;
// comments and whitespace-only text survive a parse/serialise
// round-trip.
type ParsedXML struct {
	doc    *etree.Document
	Assets []AssetRef
}

// ParseXML parses data and enumerates its static assets.
func ParseXML(data []byte) (*ParsedXML, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("could not parse XML: %w", err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("could not parse XML: no root element")
	}
	return &ParsedXML{doc: doc, Assets: staticAssets(doc)}, nil
}

// Bytes serialises the document, including any rewritten references.
func (p *ParsedXML) Bytes() ([]byte, error) {
	return p.doc.WriteToBytes()
}

// staticAssets walks the tree in document order collecting references
// from the asset-bearing elements.
func staticAssets(doc *etree.Document) []AssetRef {
	root := doc.Root()
	prefixes := xlinkPrefixes(root)
	var refs []AssetRef
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		if el.Space == "" && staticAssetTags[el.Tag] {
			for _, a := range el.Attr {
				if a.Key == "href" && prefixes[a.Space] {
					refs = append(refs, AssetRef{ID: a.Value, el: el, attr: attrFullKey(a)})
					break
				}
			}
		}
		for _, child := range el.ChildElements() {
			walk(child)
		}
	}
	walk(root)
	return refs
}

// xlinkPrefixes collects the prefixes the root element binds to the
// xlink namespace. Documents without a declaration fall back to the
// conventional "xlink" prefix.
func xlinkPrefixes(root *etree.Element) map[string]bool {
	prefixes := map[string]bool{}
	for _, a := range root.Attr {
		if a.Space == "xmlns" && a.Value == xlinkNS {
			prefixes[a.Key] = true
		}
	}
	if len(prefixes) == 0 {
		prefixes["xlink"] = true
	}
	return prefixes
}

func attrFullKey(a etree.Attr) string {
	if a.Space == "" {
		return a.Key
	}
	return a.Space + ":" + a.Key
}
