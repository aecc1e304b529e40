// fastview pushes incremental svg updates to a browser: a data model is converted
// to a view-model, fanned out to one or more views, and each view emits element
// updates that a small client script applies by element id.
package fastview

import (
	"html/template"
)

// TextContent is the reserved op key that sets an element's text instead of an attribute.
const TextContent = "textContent"

// EleUpdate is an element identifier and a set of operations to apply to it.
type EleUpdate struct {
	// The id by which the client finds the element.
	EleId string
	// Ops are applied in order.
	Ops []Op
}

// Op is an attribute key and its new value, or TextContent and the new text.
type Op struct {
	Key   string
	Value string
}

// ViewComponent is a server side view: it contributes a named template to the page
// and a channel of element updates that keep the rendered page current.
type ViewComponent interface {
	Updates() <-chan []EleUpdate
	// Parse adds the view's template to the parent, inheriting its func-map,
	// and returns the template name to invoke.
	Parse(*template.Template) (string, error)
}
