package chat

import (
	"fmt"
	"strings"
	"time"
)

// Response style flags accepted from callers; anything else means concise.
const (
	StyleConcise  = "concise"
	StyleDetailed = "detailed"
)

// ComposeSystemPrompt builds the single server-controlled system message that
// is prepended to every conversation. It is never stored back into caller
// state.
func ComposeSystemPrompt(provider, model, style string, webSearch bool, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an AI assistant powered by the %q model from the %s provider. ", model, provider)
	b.WriteString("If asked what model you are, state this model name exactly; do not speculate about other models or products.")

	if webSearch {
		b.WriteString("\n\nYou have access to a web_search tool. For questions about current events, ")
		b.WriteString("real-time information, or anything date-sensitive, use web_search rather than relying on trained knowledge.")
	}

	switch style {
	case StyleDetailed:
		b.WriteString("\n\nProvide thorough, well-structured answers with relevant background and detail.")
	default:
		b.WriteString("\n\nKeep your answers concise and to the point.")
	}

	fmt.Fprintf(&b, "\n\nCurrent date: %s.", now.Format("January 2, 2006"))

	return b.String()
}
