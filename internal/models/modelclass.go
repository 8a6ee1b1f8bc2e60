package models

import "strings"

// ModelClass is the derived category of a model identifier. It governs which
// request-building rules apply and is recomputed on every request; it is a
// pure function of the identifier string.
type ModelClass string

const (
	// ClassStandard models accept the full chat-completion parameter set.
	ClassStandard ModelClass = "standard"
	// ClassRestricted models reject sampling parameters and tool declarations
	// and use the max_completion_tokens token-limit field.
	ClassRestricted ModelClass = "restricted"
	// ClassAlternate models bypass the chat-completion shape entirely and are
	// served through the responses endpoint.
	ClassAlternate ModelClass = "alternate"
)

// Identifier substrings, matched in order: alternate before restricted, since
// every pro-tier identifier also contains its family marker.
var (
	alternateMarkers  = []string{"gpt-5-pro", "o3-pro"}
	restrictedMarkers = []string{"gpt-5", "o1", "o3", "o4"}
)

// ClassifyModel maps a model identifier to its ModelClass by substring
// matching. New model families are added by extending the marker tables.
func ClassifyModel(model string) ModelClass {
	for _, marker := range alternateMarkers {
		if strings.Contains(model, marker) {
			return ClassAlternate
		}
	}
	for _, marker := range restrictedMarkers {
		if strings.Contains(model, marker) {
			return ClassRestricted
		}
	}
	return ClassStandard
}
