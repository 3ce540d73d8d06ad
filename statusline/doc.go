// Package statusline lets components report what they are doing as a short
// line of text. Each line is logged and kept for the run so the server can
// show it next to the component.
//
// # Architecture
//
// The package follows the handler/writer split of log/slog:
//
//   - Line: writes status messages for one component kind (like slog.Logger)
//   - Handler: stores the latest message per kind (like slog.Handler)
//
// # Usage
//
// A component asks for a Line in its constructor or through a tagged field:
//
//	type Cache struct {
//	    Status *statusline.Line `config:""`
//	}
//
//	func (c *Cache) Build(rc *component.RunContext) error {
//	    c.Status.Set("warming")
//	    // ...
//	    c.Status.Set("ready")
//	    return nil
//	}
//
// The host gives every activator a factory binding a Line to the kind being
// created:
//
//	handler := statusline.NewHandler()
//	component.ProvideFactory(act, func(kind component.Kind) *statusline.Line {
//	    return statusline.NewLine(kind, logger, handler)
//	})
//
// # Error Capturing
//
// CaptureError records a failure as the component's status:
//
//	return statusline.CaptureError(c.Status, func() error {
//	    return c.fill()
//	})
package statusline
