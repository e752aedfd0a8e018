package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.lsp.dev/uri"
)

func TestDocumentScheme(t *testing.T) {
	assert.Equal(t, "file", Document{URI: uri.File("/src/IFoo.aidl")}.Scheme())
	assert.Equal(t, "untitled", Document{URI: "untitled:Untitled-1"}.Scheme())
	assert.Equal(t, "", Document{URI: "%zz"}.Scheme())
}

func TestAIDLSelector(t *testing.T) {
	selector := AIDLSelector()

	tests := []struct {
		name string
		doc  Document
		want bool
	}{
		{
			name: "local aidl file",
			doc:  Document{URI: uri.File("/src/com/example/IFoo.aidl"), LanguageID: LanguageAIDL},
			want: true,
		},
		{
			name: "untitled aidl document",
			doc:  Document{URI: "untitled:Untitled-1", LanguageID: LanguageAIDL},
			want: false,
		},
		{
			name: "local java file",
			doc:  Document{URI: uri.File("/src/com/example/Foo.java"), LanguageID: "java"},
			want: false,
		},
		{
			name: "aidl extension tagged as plaintext",
			doc:  Document{URI: uri.File("/src/IFoo.aidl"), LanguageID: "plaintext"},
			want: false,
		},
		{
			name: "remote aidl file",
			doc:  Document{URI: "https://example.com/IFoo.aidl", LanguageID: LanguageAIDL},
			want: false,
		},
		{
			name: "missing language",
			doc:  Document{URI: uri.File("/src/IFoo.aidl")},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, selector.Matches(tt.doc))
		})
	}
}

func TestDocumentFilterWildcards(t *testing.T) {
	doc := Document{URI: "untitled:Untitled-1", LanguageID: "java"}

	assert.True(t, DocumentFilter{}.Matches(doc))
	assert.True(t, DocumentFilter{Language: "java"}.Matches(doc))
	assert.False(t, DocumentFilter{Scheme: uri.FileScheme}.Matches(doc))
	assert.False(t, DocumentSelector{}.Matches(doc))
}
