package failure

// Severity drives how prominently the caller shows a failure.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Action is a recovery step the caller can offer next to the message.
type Action string

const (
	ActionRetry           Action = "retry"
	ActionOpenSettings    Action = "openSettings"
	ActionCheckConnection Action = "checkConnection"
	ActionDismiss         Action = "dismiss"
)

// Presentation is the user-facing rendering of a failure.
type Presentation struct {
	Title      string   `json:"title"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion"`
	Severity   Severity `json:"severity"`
	Actions    []Action `json:"actions"`
	// Silent is set for user-initiated outcomes that should not be shown as errors.
	Silent bool `json:"silent,omitempty"`
}

type copyText struct {
	title, suggestion string
	severity          Severity
}

var catalogue = map[Kind]copyText{
	MissingCredential:       {"API Key Required", "Open Settings and enter your API key.", SeverityWarning},
	InvalidCredentialFormat: {"Invalid API Key", "Check your API key and try again. You can get a new key from Google AI Studio.", SeverityError},
	InvalidCredential:       {"Invalid API Key", "Check your API key and try again. You can get a new key from Google AI Studio.", SeverityError},
	AuthenticationFailed:    {"Authentication Failed", "Check your API key and its permissions in Settings.", SeverityError},
	RateLimited:             {"Rate Limit Exceeded", "Wait a few seconds and try again. Consider spacing out your requests.", SeverityWarning},
	QuotaExceeded:           {"Quota Exceeded", "Check your Google Cloud Console to see your usage and limits.", SeverityError},
	NetworkError:            {"Connection Error", "Check your internet connection and try again.", SeverityError},
	Timeout:                 {"Request Timed Out", "Try again, or simplify your description.", SeverityWarning},
	EmptyInput:              {"Empty Description", "Try something like \"Create a todo list app\" or \"Build a calculator\".", SeverityWarning},
	TooShort:                {"Description Too Short", "Add more details about what you want to create.", SeverityWarning},
	TooLong:                 {"Description Too Long", "Simplify your description and focus on the main features.", SeverityWarning},
	InvalidOptions:          {"Invalid Options", "Check the retry and timeout settings.", SeverityWarning},
	MalformedResponse:       {"Invalid Response", "Try again. The model returned an unusable response.", SeverityError},
	InvalidGeneratedCode:    {"Invalid Code Generated", "Try a different description or try again.", SeverityError},
	Unknown:                 {"Code Generation Failed", "Try a simpler description or check your API key.", SeverityError},
}

// Present renders err for display. Unclassified errors are classified first.
func Present(err error) Presentation {
	e := Classify(err)
	if e == nil {
		e = New(Unknown, "An unexpected error occurred.")
	}
	if e.Kind == Cancelled {
		return Presentation{Title: "Cancelled", Message: e.Message, Silent: true, Actions: []Action{ActionDismiss}}
	}
	c, ok := catalogue[e.Kind]
	if !ok {
		c = catalogue[Unknown]
	}
	p := Presentation{
		Title:      c.title,
		Message:    e.Message,
		Suggestion: c.suggestion,
		Severity:   c.severity,
	}
	if p.Severity == SeverityWarning {
		p.Actions = append(p.Actions, ActionRetry)
	}
	switch e.Kind {
	case MissingCredential, InvalidCredentialFormat, InvalidCredential, AuthenticationFailed:
		p.Actions = append(p.Actions, ActionOpenSettings)
	case NetworkError:
		p.Actions = append(p.Actions, ActionCheckConnection)
	}
	p.Actions = append(p.Actions, ActionDismiss)
	return p
}
