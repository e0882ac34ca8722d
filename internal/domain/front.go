package domain

import (
	"strings"

	"github.com/beevik/etree"
)

// SanitizeFront extracts the document's front-matter into a normalised
// map ready for JSON rendering. Article titles are reduced to display
// form: cross-references stripped, bold and italic collapsed to plain
// b and i tags, one entry per language.
func SanitizeFront(data []byte) (map[string]any, error) {
	parsed, err := ParseXML(data)
	if err != nil {
		return nil, err
	}
	doc := parsed.doc

	front := map[string]any{
		"journal_meta": journalMeta(doc),
		"article_meta": articleMeta(doc),
	}
	return front, nil
}

func journalMeta(doc *etree.Document) map[string]any {
	meta := map[string]any{}

	ids := map[string]string{}
	for _, el := range doc.FindElements("//journal-meta/journal-id") {
		if t := el.SelectAttrValue("journal-id-type", ""); t != "" {
			ids[t] = strings.TrimSpace(el.Text())
		}
	}
	if len(ids) > 0 {
		meta["journal_ids"] = ids
	}

	if el := doc.FindElement("//journal-meta//journal-title"); el != nil {
		meta["journal_title"] = strings.TrimSpace(el.Text())
	}
	if el := doc.FindElement("//journal-meta//abbrev-journal-title"); el != nil {
		meta["abbrev_journal_title"] = strings.TrimSpace(el.Text())
	}

	issns := map[string]string{}
	for _, el := range doc.FindElements("//journal-meta/issn") {
		if t := el.SelectAttrValue("pub-type", ""); t != "" {
			issns[t] = strings.TrimSpace(el.Text())
		}
	}
	if len(issns) > 0 {
		meta["issns"] = issns
	}

	if el := doc.FindElement("//journal-meta//publisher-name"); el != nil {
		meta["publisher_name"] = strings.TrimSpace(el.Text())
	}
	return meta
}

func articleMeta(doc *etree.Document) map[string]any {
	meta := map[string]any{}

	ids := map[string]string{}
	for _, el := range doc.FindElements("//article-meta/article-id") {
		if t := el.SelectAttrValue("pub-id-type", ""); t != "" {
			ids[t] = strings.TrimSpace(el.Text())
		}
	}
	if len(ids) > 0 {
		meta["article_ids"] = ids
	}

	if titles := articleTitles(doc); len(titles) > 0 {
		meta["article_title"] = titles
	}

	var contribs []map[string]string
	for _, el := range doc.FindElements("//article-meta//contrib/name") {
		contrib := map[string]string{}
		if s := el.FindElement("surname"); s != nil {
			contrib["surname"] = strings.TrimSpace(s.Text())
		}
		if g := el.FindElement("given-names"); g != nil {
			contrib["given_names"] = strings.TrimSpace(g.Text())
		}
		if len(contrib) > 0 {
			contribs = append(contribs, contrib)
		}
	}
	if len(contribs) > 0 {
		meta["contribs"] = contribs
	}

	for field, path := range map[string]string{
		"volume":       "//article-meta/volume",
		"issue":        "//article-meta/issue",
		"fpage":        "//article-meta/fpage",
		"lpage":        "//article-meta/lpage",
		"elocation_id": "//article-meta/elocation-id",
		"pub_year":     "//article-meta/pub-date/year",
	} {
		if el := doc.FindElement(path); el != nil {
			meta[field] = strings.TrimSpace(el.Text())
		}
	}
	return meta
}

// articleTitles maps language to the display form of the article
// title, drawing from the title group, translated title groups and
// translation sub-articles.
func articleTitles(doc *etree.Document) map[string]string {
	titles := map[string]string{}

	record := func(lang string, node *etree.Element) {
		if lang == "" || node == nil {
			return
		}
		if content := displayContent(node); content != "" {
			titles[lang] = content
		}
	}

	if root := doc.Root(); root != nil {
		lang := root.SelectAttrValue("xml:lang", "")
		record(lang, doc.FindElement("//article-meta//article-title"))
	}
	for _, group := range doc.FindElements("//article-meta//trans-title-group") {
		lang := group.SelectAttrValue("xml:lang", "")
		record(lang, group.FindElement(".//trans-title"))
	}
	for _, sub := range doc.FindElements("//sub-article[@article-type='translation']") {
		lang := sub.SelectAttrValue("xml:lang", "")
		record(lang, sub.FindElement("./front-stub//article-title"))
	}
	return titles
}

// displayContent renders the inner XML of node with xref elements
// removed and bold/italic renamed to b/i.
func displayContent(node *etree.Element) string {
	work := node.Copy()
	for _, xref := range work.FindElements(".//xref") {
		if parent := xref.Parent(); parent != nil {
			parent.RemoveChild(xref)
		}
	}
	for _, tag := range []string{"bold", "italic"} {
		for _, found := range work.FindElements(".//" + tag) {
			found.Tag = tag[:1]
		}
	}

	wrapper := etree.NewDocument()
	wrapper.SetRoot(work)
	serialized, err := wrapper.WriteToString()
	if err != nil {
		return ""
	}
	open := strings.Index(serialized, ">")
	end := strings.LastIndex(serialized, "</")
	if open < 0 || end <= open {
		return ""
	}
	return strings.TrimSpace(serialized[open+1 : end])
}
