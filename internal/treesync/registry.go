package treesync

// Kind records whether a registered child page mirrors a folder or a document.
type Kind string

const (
	KindFolder   Kind = "folder"
	KindDocument Kind = "document"
)

// Child is one page listed on its parent folder page.
type Child struct {
	Title string
	ID    string
	Kind  Kind
}

// registry maps folder paths to their children in registration order.
// Entries are only appended during a run.
type registry struct {
	children map[string][]Child
	order    []string
}

func newRegistry() *registry {
	return &registry{children: make(map[string][]Child)}
}

// add appends child under dir. A page id already listed under dir is not
// added twice, so local names collapsing onto one page are listed once.
func (r *registry) add(dir string, child Child) {
	existing, ok := r.children[dir]
	if !ok {
		r.order = append(r.order, dir)
	}
	for _, c := range existing {
		if c.ID == child.ID {
			return
		}
	}
	r.children[dir] = append(existing, child)
}

// dirs returns folder paths in first-registration order.
func (r *registry) dirs() []string {
	return append([]string(nil), r.order...)
}

func (r *registry) get(dir string) []Child {
	return r.children[dir]
}

// partition splits children by kind, keeping order.
func partition(children []Child) (folders, documents []Child) {
	for _, c := range children {
		if c.Kind == KindFolder {
			folders = append(folders, c)
			continue
		}
		documents = append(documents, c)
	}
	return folders, documents
}
