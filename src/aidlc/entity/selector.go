package entity

import (
	"net/url"

	"go.lsp.dev/uri"
)

// LanguageAIDL is the language tag of Android interface definition documents.
const LanguageAIDL = "aidl"

// Document identifies an open document.
type Document struct {
	URI        uri.URI
	LanguageID string
}

// Scheme returns the URI scheme of the document, or an empty string for malformed URIs.
func (d Document) Scheme() string {
	u, err := url.Parse(string(d.URI))
	if err != nil {
		return ""
	}
	return u.Scheme
}

// DocumentFilter matches documents by scheme and language. Empty fields match anything.
type DocumentFilter struct {
	Scheme   string `json:"scheme,omitempty"`
	Language string `json:"language,omitempty"`
}

// Matches reports whether doc satisfies every non-empty field of the filter.
func (f DocumentFilter) Matches(doc Document) bool {
	if f.Scheme != "" && f.Scheme != doc.Scheme() {
		return false
	}
	if f.Language != "" && f.Language != doc.LanguageID {
		return false
	}
	return true
}

// DocumentSelector is a set of filters, a document is in scope when any filter matches.
type DocumentSelector []DocumentFilter

// Matches reports whether doc is in scope.
func (s DocumentSelector) Matches(doc Document) bool {
	for _, f := range s {
		if f.Matches(doc) {
			return true
		}
	}
	return false
}

// AIDLSelector returns the fixed selector for local AIDL files.
func AIDLSelector() DocumentSelector {
	return DocumentSelector{{Scheme: uri.FileScheme, Language: LanguageAIDL}}
}
