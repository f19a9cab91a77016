package render

import "go.trai.ch/stencil/internal/core/domain"

type keyJSON struct {
	Context string      `json:"context"`
	Kind    domain.Kind `json:"kind"`
	Name    string      `json:"name"`
}

func newKeyJSON(k domain.Key) keyJSON {
	return keyJSON{Context: k.Context.String(), Kind: k.Kind, Name: string(k.Name)}
}

type implementationJSON struct {
	Path    string `json:"path"`
	Root    string `json:"root"`
	ModTime int64  `json:"mod_time"`
	Size    int64  `json:"size"`
}

func newImplementationJSON(i domain.Implementation) implementationJSON {
	return implementationJSON{Path: i.Path, Root: i.Root, ModTime: i.Stamp.ModTime, Size: i.Stamp.Size}
}

type resolutionJSON struct {
	Key        keyJSON              `json:"key"`
	Effective  *implementationJSON  `json:"effective"`
	Candidates []implementationJSON `json:"candidates"`
}

type callsiteJSON struct {
	From    string      `json:"from"`
	Kind    domain.Kind `json:"kind"`
	Name    string      `json:"name"`
	Raw     string      `json:"raw"`
	Start   int         `json:"start"`
	End     int         `json:"end"`
	Context string      `json:"context"`
}

type nodeJSON struct {
	Level      int    `json:"level,omitempty"`
	Text       string `json:"text"`
	File       string `json:"file,omitempty"`
	Offset     int    `json:"offset"`
	Depth      int    `json:"depth"`
	Diagnostic string `json:"diagnostic"`
}

type outlineJSON struct {
	Entry     string     `json:"entry"`
	Context   string     `json:"context"`
	HasCycle  bool       `json:"has_cycle"`
	Nodes     []nodeJSON `json:"nodes"`
	DependsOn []string   `json:"depends_on"`
}

type contextJSON struct {
	Context   string   `json:"context"`
	Templates []string `json:"templates"`
	Layouts   []string `json:"layouts"`
	Partials  []string `json:"partials"`
}

func newContextJSON(id domain.ContextID, set domain.RootPathSet) contextJSON {
	return contextJSON{
		Context:   id.String(),
		Templates: nonNil(set.Paths(domain.KindTemplate)),
		Layouts:   nonNil(set.Paths(domain.KindLayout)),
		Partials:  nonNil(set.Paths(domain.KindPartial)),
	}
}

type changeJSON struct {
	Type string              `json:"type"`
	Key  keyJSON             `json:"key"`
	Old  *implementationJSON `json:"old,omitempty"`
	New  *implementationJSON `json:"new,omitempty"`
}

type entryPointJSON struct {
	File    string `json:"file"`
	Context string `json:"context"`
}

type publicationJSON struct {
	Batch       uint64           `json:"batch"`
	Events      int              `json:"events"`
	Rebuilt     bool             `json:"rebuilt"`
	Files       []string         `json:"files"`
	Changes     []changeJSON     `json:"changes"`
	Contexts    []contextJSON    `json:"contexts"`
	EntryPoints []entryPointJSON `json:"entry_points"`
	Degraded    []string         `json:"degraded"`
}

func newPublicationJSON(pub domain.Publication) publicationJSON {
	doc := publicationJSON{
		Batch:       pub.Batch,
		Events:      pub.Events,
		Rebuilt:     pub.Rebuilt,
		Files:       nonNil(pub.Files),
		Changes:     make([]changeJSON, 0, len(pub.Changes)),
		Contexts:    make([]contextJSON, 0, len(pub.Contexts)),
		EntryPoints: make([]entryPointJSON, 0, len(pub.EntryPoints)),
		Degraded:    nonNil(pub.Degraded),
	}
	for _, ch := range pub.Changes {
		c := changeJSON{Type: ch.Type().String(), Key: newKeyJSON(ch.Key)}
		if ch.Old != nil {
			old := newImplementationJSON(*ch.Old)
			c.Old = &old
		}
		if ch.New != nil {
			next := newImplementationJSON(*ch.New)
			c.New = &next
		}
		doc.Changes = append(doc.Changes, c)
	}
	for _, cc := range pub.Contexts {
		doc.Contexts = append(doc.Contexts, newContextJSON(cc.Context, cc.New))
	}
	for _, ep := range pub.EntryPoints {
		doc.EntryPoints = append(doc.EntryPoints, entryPointJSON{File: ep.File, Context: ep.Context.String()})
	}
	return doc
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
