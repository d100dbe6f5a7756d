package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/chriserin/vero/internal/compiler"
)

const cleanDoc = `FEATURE Smoke {
    SCENARIO "logs" {
        LOG "hello"
    }
}
`

const uri = "file:///login.vero"

// recorder collects published diagnostics in the order they were sent.
type recorder struct {
	published []protocol.PublishDiagnosticsParams
}

func (r *recorder) context() *glsp.Context {
	return &glsp.Context{
		Notify: func(method string, params any) {
			if method == protocol.ServerTextDocumentPublishDiagnostics {
				r.published = append(r.published, params.(protocol.PublishDiagnosticsParams))
			}
		},
	}
}

func change(version protocol.Integer, text string) *protocol.DidChangeTextDocumentParams {
	return &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                version,
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: text}},
	}
}

func TestServer_UpdateStoresAnalysis(t *testing.T) {
	s := New(compiler.Options{}, "test")

	diags, ok := s.update(uri, 1, doc)
	require.True(t, ok)
	assert.Len(t, diags, 1)

	d, ok := s.document(uri)
	require.True(t, ok)
	assert.Equal(t, doc, d.text)
	assert.Equal(t, protocol.Integer(1), d.version)
	assert.False(t, d.result.Valid())
}

func TestServer_UpdateDropsOlderVersion(t *testing.T) {
	s := New(compiler.Options{}, "test")

	_, ok := s.update(uri, 3, cleanDoc)
	require.True(t, ok)
	_, ok = s.update(uri, 2, doc)
	assert.False(t, ok)

	d, _ := s.document(uri)
	assert.Equal(t, cleanDoc, d.text)
}

func TestServer_PublishesInEditOrder(t *testing.T) {
	s := New(compiler.Options{}, "test")
	var rec recorder
	ctx := rec.context()

	require.NoError(t, s.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, LanguageID: "vero", Version: 1, Text: cleanDoc},
	}))
	require.NoError(t, s.textDocumentDidChange(ctx, change(2, doc)))
	require.NoError(t, s.textDocumentDidChange(ctx, change(3, cleanDoc)))

	require.Len(t, rec.published, 3)
	for i, p := range rec.published {
		require.NotNil(t, p.Version)
		assert.Equal(t, protocol.UInteger(i+1), *p.Version)
	}
	assert.Empty(t, rec.published[0].Diagnostics)
	assert.Len(t, rec.published[1].Diagnostics, 1)
	assert.Empty(t, rec.published[2].Diagnostics)
}

func TestServer_StaleChangeIsNotPublished(t *testing.T) {
	s := New(compiler.Options{}, "test")
	var rec recorder
	ctx := rec.context()

	require.NoError(t, s.textDocumentDidChange(ctx, change(5, cleanDoc)))
	require.NoError(t, s.textDocumentDidChange(ctx, change(4, doc)))

	require.Len(t, rec.published, 1)
	assert.Empty(t, rec.published[0].Diagnostics)
}

func TestServer_CloseClearsDiagnostics(t *testing.T) {
	s := New(compiler.Options{}, "test")
	var rec recorder
	ctx := rec.context()

	require.NoError(t, s.textDocumentDidChange(ctx, change(1, doc)))
	require.NoError(t, s.textDocumentDidClose(ctx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}))

	require.Len(t, rec.published, 2)
	assert.Empty(t, rec.published[1].Diagnostics)
	_, ok := s.document(uri)
	assert.False(t, ok)
}
