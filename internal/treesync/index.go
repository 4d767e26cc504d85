package treesync

import (
	"html"
	"strings"
)

const (
	foldersHeading   = "This folder contains the following folders:"
	documentsHeading = "This folder contains the following pages:"
)

// placeholderBody is stored on a folder page when it is first created.
func placeholderBody(title string) string {
	return "<p>Folder: " + html.EscapeString(title) + "</p>"
}

// folderBody renders a folder page: heading, optional intro fragment, then
// link lists for sub-folders and documents. Empty lists are omitted.
func folderBody(title, intro string, children []Child) string {
	folders, documents := partition(children)

	var b strings.Builder
	b.WriteString("<h1>Folder: " + html.EscapeString(title) + "</h1>\n")
	if intro = strings.TrimSpace(intro); intro != "" {
		b.WriteString(intro)
		b.WriteString("\n")
	}
	writeLinkList(&b, foldersHeading, folders)
	writeLinkList(&b, documentsHeading, documents)
	return b.String()
}

func writeLinkList(b *strings.Builder, heading string, children []Child) {
	if len(children) == 0 {
		return
	}
	b.WriteString("<h2>" + heading + "</h2>\n<ul>\n")
	for _, c := range children {
		b.WriteString(`<li><ac:link><ri:page ri:content-title="`)
		b.WriteString(html.EscapeString(c.Title))
		b.WriteString(`" /></ac:link></li>` + "\n")
	}
	b.WriteString("</ul>\n")
}
