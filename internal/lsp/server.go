// Package lsp serves Vero diagnostics, completion and hover over the
// Language Server Protocol.
package lsp

import (
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chriserin/vero/internal/compiler"
)

const lspName = "vero-lsp"

var log = commonlog.GetLogger("vero.lsp")

// Server checks open documents with the compiler and answers editor
// requests from the last check of each document.
type Server struct {
	opts compiler.Options

	mu   sync.Mutex
	docs map[string]*document // URI → latest analysis

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

type document struct {
	version protocol.Integer
	text    string
	result  *compiler.Result
}

// New creates a server that checks documents with opts.
func New(opts compiler.Options, version string) *Server {
	s := &Server{
		opts:    opts,
		docs:    make(map[string]*document),
		version: version,
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)
	return s
}

// Run serves on stdio until the client disconnects.
func (s *Server) Run() error {
	return s.server.RunStdio()
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Info("initializing", "version", s.version)

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"."},
	}
	capabilities.HoverProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *Server) shutdown(ctx *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (s *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	doc := params.TextDocument
	if diagnostics, ok := s.update(string(doc.URI), doc.Version, doc.Text); ok {
		publish(ctx, doc.URI, doc.Version, diagnostics)
	}
	return nil
}

func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}
	// Full sync: the last change carries the whole text.
	last := params.ContentChanges[len(params.ContentChanges)-1]
	whole, ok := last.(protocol.TextDocumentContentChangeEventWhole)
	if !ok {
		return nil
	}

	doc := params.TextDocument
	if diagnostics, ok := s.update(string(doc.URI), doc.Version, whole.Text); ok {
		publish(ctx, doc.URI, doc.Version, diagnostics)
	}
	return nil
}

func (s *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

// publish sends diagnostics from the handler goroutine. Handlers run one
// at a time, so notifications leave in the order the edits arrived.
func publish(ctx *glsp.Context, uri protocol.DocumentUri, version protocol.Integer, diagnostics []protocol.Diagnostic) {
	params := protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	}
	if version >= 0 {
		v := protocol.UInteger(version)
		params.Version = &v
	}
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, params)
}

func (s *Server) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	doc, ok := s.document(string(params.TextDocument.URI))
	if !ok {
		return nil, nil
	}
	qualifier, prefix := extractPrefix(doc.text, params.Position)
	return completions(doc.result, s.opts, qualifier, prefix), nil
}

func (s *Server) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc, ok := s.document(string(params.TextDocument.URI))
	if !ok {
		return nil, nil
	}
	qualifier, word := extractWord(doc.text, params.Position)
	if word == "" {
		return nil, nil
	}
	return hover(doc.result, qualifier, word), nil
}

// update checks text and stores the analysis for uri. Versions older than
// the stored one are dropped and report false.
func (s *Server) update(uri string, version protocol.Integer, text string) ([]protocol.Diagnostic, bool) {
	r := compiler.Check(text, s.opts)
	log.Debugf("%s@%d: %s", uri, version, r.Result.Summary())

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.docs[uri]; ok && version < prev.version {
		log.Debugf("%s: dropping version %d, have %d", uri, version, prev.version)
		return nil, false
	}
	s.docs[uri] = &document{version: version, text: text, result: r}
	return toProtocol(r), true
}

func (s *Server) document(uri string) (*document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[uri]
	return doc, ok
}

func boolPtr(b bool) *bool {
	return &b
}
