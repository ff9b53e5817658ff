package errors

// Registered error codes.
const (
	CodeRenderFailed        = "K001"
	CodeContainerUnresolved = "K002"
	CodeLoopPanic           = "K003"
	CodeFlushAborted        = "K004"

	CodeInvalidFrame    = "K101"
	CodeInvalidEvent    = "K102"
	CodeHandlerNotFound = "K103"
	CodeWriteFailed     = "K104"

	CodeConfigRead    = "K201"
	CodeConfigParse   = "K202"
	CodeConfigInvalid = "K203"

	CodeCommandFailed = "K301"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

const docBase = "https://kinetic.vango.dev/docs/errors/"

func docURL(code string) string {
	return docBase + code
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Runtime errors (K001-K099)

	CodeRenderFailed: {
		Category:   CategoryRender,
		Message:    "Component render failed",
		Detail:     "The render function panicked. The previous output stays in place and the component renders again on its next state change.",
		Suggestion: "Check the component's render function for nil dereferences or failed type assertions.",
	},
	CodeContainerUnresolved: {
		Category:   CategoryRuntime,
		Message:    "Mount container not found",
		Detail:     "The mount target did not resolve to a host container, so nothing was mounted.",
		Suggestion: "Pass a host handle or a selector the host adapter knows, such as \"#app\".",
	},
	CodeLoopPanic: {
		Category: CategoryRuntime,
		Message:  "Loop task panicked",
		Detail:   "A task submitted to the event loop panicked. The loop recovered and continues with the next task.",
	},
	CodeFlushAborted: {
		Category: CategoryRuntime,
		Message:  "Scheduler flush aborted",
		Detail:   "A job panicked during a flush. Jobs later in the same batch did not run.",
	},

	// Protocol errors (K100-K199)

	CodeInvalidFrame: {
		Category: CategoryProtocol,
		Message:  "Malformed frame",
		Detail:   "A frame could not be decoded.",
	},
	CodeInvalidEvent: {
		Category: CategoryProtocol,
		Message:  "Malformed event",
		Detail:   "An event payload could not be decoded.",
	},
	CodeHandlerNotFound: {
		Category: CategoryProtocol,
		Message:  "No handler for event",
		Detail:   "The event targets a node that is gone or has no handler for its type.",
	},
	CodeWriteFailed: {
		Category: CategoryProtocol,
		Message:  "Transport write failed",
		Detail:   "A frame could not be written to the connection; the session is closing.",
	},

	// Config errors (K200-K299)

	CodeConfigRead: {
		Category: CategoryConfig,
		Message:  "Cannot read configuration file",
	},
	CodeConfigParse: {
		Category:   CategoryConfig,
		Message:    "Invalid configuration syntax",
		Suggestion: "kinetic.json must be valid JSON and kinetic.yaml valid YAML.",
	},
	CodeConfigInvalid: {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},

	// CLI errors (K300-K399)

	CodeCommandFailed: {
		Category: CategoryCLI,
		Message:  "Command failed",
	},
}

// Registered reports whether code has a template.
func Registered(code string) bool {
	_, ok := registry[code]
	return ok
}
