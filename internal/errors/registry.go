package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Script Errors (E001-E019)
	// ============================================

	"E001": {
		Category: CategoryScript,
		Message:  "Component logic raised an error",
		Detail:   "A logic handler failed while executing. The traceback below points at the failing line in the component's logic module.",
		DocURL:   "https://noventa.dev/docs/errors/E001",
	},
	"E002": {
		Category: CategoryScript,
		Message:  "Logic handler not found",
		Detail:   "The component's logic module does not define the invoked handler. Components need a load_template_context function, and every form action needs a matching action_<name> function.",
		DocURL:   "https://noventa.dev/docs/errors/E002",
	},

	// ============================================
	// Request Errors (E010-E019)
	// ============================================

	"E010": {
		Category: CategoryRequest,
		Message:  "Missing action field",
		Detail:   "POST requests must carry a non-empty action form field naming the handler to run. Forms rendered by the engine include it automatically.",
		DocURL:   "https://noventa.dev/docs/errors/E010",
	},

	// ============================================
	// Scan Errors (E020-E029)
	// ============================================

	"E020": {
		Category: CategoryScan,
		Message:  "Component not found",
		Detail:   "A template calls a component id that is not in the catalog. Component ids are folder paths relative to the component root, with slashes replaced by dots.",
		DocURL:   "https://noventa.dev/docs/errors/E020",
	},
	"E021": {
		Category: CategoryScan,
		Message:  "Component call cycle",
		Detail:   "A component's template ends up calling itself through a chain of nested components, which would recurse forever.",
		DocURL:   "https://noventa.dev/docs/errors/E021",
	},

	// ============================================
	// Template Errors (E030-E039)
	// ============================================

	"E030": {
		Category: CategoryTemplate,
		Message:  "Template render failed",
		Detail:   "The template engine could not render this template. The wrapped error carries the engine's own diagnostics.",
		DocURL:   "https://noventa.dev/docs/errors/E030",
	},

	// ============================================
	// Pool Errors (E040-E049)
	// ============================================

	"E040": {
		Category: CategoryPool,
		Message:  "Script worker unavailable",
		Detail:   "The runtime pool could not reach a worker. The pool is shutting down, or a worker died without recovery.",
		DocURL:   "https://noventa.dev/docs/errors/E040",
	},

	// ============================================
	// Admission Errors (E050-E059)
	// ============================================

	"E050": {
		Category: CategoryAdmission,
		Message:  "Request rejected under load",
		Detail:   "The server is shedding load: request latency spiked past the healthy baseline and this request was over the frozen concurrency ceiling.",
		DocURL:   "https://noventa.dev/docs/errors/E050",
	},

	// ============================================
	// Config Errors (E060-E069)
	// ============================================

	"E060": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "noventa.json could not be read or contains invalid values.",
		DocURL:   "https://noventa.dev/docs/errors/E060",
	},

	// ============================================
	// Routing Errors (E070-E079)
	// ============================================

	"E070": {
		Category: CategoryRouting,
		Message:  "Route conflict",
		Detail:   "Two page files compile to overlapping URL patterns. Rename one of them; a page and a directory index cannot share a path.",
		DocURL:   "https://noventa.dev/docs/errors/E070",
	},
}
