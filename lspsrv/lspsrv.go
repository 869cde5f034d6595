// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lspsrv is a minimal JSON-RPC-over-stdio shell around the
// asm6502 parser and code generator, deliberately thin per the
// message-dispatch skeleton's out-of-scope boundary: it wires five
// methods (initialize, didOpen, didChange, completion, definition)
// straight to the core package and republishes C8's diagnostics,
// nothing more.
package lspsrv

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/beevik/asm6502"
)

type document struct {
	text   string
	tree   []asm6502.Statement
	symtab *asm6502.SymbolTable
}

// Server holds one open document per URI and the connection's framed
// reader/writer.
type Server struct {
	r   *bufio.Reader
	w   io.Writer
	docs map[string]*document
}

// Run starts the language server loop, blocking until r is closed or
// a framing error occurs.
func Run(r io.Reader, w io.Writer) error {
	s := &Server{r: bufio.NewReader(r), w: w, docs: make(map[string]*document)}
	for {
		msg, err := readMessage(s.r)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := s.dispatch(msg); err != nil {
			return err
		}
	}
}

type rpcMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// readMessage reads one Content-Length-framed JSON-RPC message.
func readMessage(r *bufio.Reader) (*rpcMessage, error) {
	length := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if strings.HasPrefix(line, "Content-Length:") {
			v := strings.TrimSpace(strings.TrimPrefix(line, "Content-Length:"))
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("lspsrv: invalid Content-Length: %v", err)
			}
			length = n
		}
	}
	if length < 0 {
		return nil, fmt.Errorf("lspsrv: message with no Content-Length header")
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	var msg rpcMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func writeMessage(w io.Writer, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(body)); err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}

func (s *Server) dispatch(msg *rpcMessage) error {
	switch msg.Method {
	case "initialize":
		return s.reply(msg.ID, map[string]interface{}{
			"capabilities": map[string]interface{}{
				"textDocumentSync":   1,
				"completionProvider": map[string]interface{}{},
				"definitionProvider": true,
			},
		})
	case "textDocument/didOpen":
		var p struct {
			TextDocument struct {
				URI  string `json:"uri"`
				Text string `json:"text"`
			} `json:"textDocument"`
		}
		if err := json.Unmarshal(msg.Params, &p); err != nil {
			return err
		}
		return s.updateDocument(p.TextDocument.URI, p.TextDocument.Text)
	case "textDocument/didChange":
		var p struct {
			TextDocument struct {
				URI string `json:"uri"`
			} `json:"textDocument"`
			ContentChanges []struct {
				Text string `json:"text"`
			} `json:"contentChanges"`
		}
		if err := json.Unmarshal(msg.Params, &p); err != nil {
			return err
		}
		if len(p.ContentChanges) == 0 {
			return nil
		}
		// Full-document sync only (textDocumentSync: 1 above); the
		// last change entry holds the document's complete new text.
		return s.updateDocument(p.TextDocument.URI, p.ContentChanges[len(p.ContentChanges)-1].Text)
	case "textDocument/completion":
		var p struct {
			TextDocument struct {
				URI string `json:"uri"`
			} `json:"textDocument"`
		}
		if err := json.Unmarshal(msg.Params, &p); err != nil {
			return err
		}
		return s.reply(msg.ID, s.completionItems(p.TextDocument.URI))
	case "textDocument/definition":
		var p struct {
			TextDocument struct {
				URI string `json:"uri"`
			} `json:"textDocument"`
			Position struct {
				Line      int `json:"line"`
				Character int `json:"character"`
			} `json:"position"`
		}
		if err := json.Unmarshal(msg.Params, &p); err != nil {
			return err
		}
		return s.reply(msg.ID, s.definitionLocation(p.TextDocument.URI, p.Position.Line, p.Position.Character))
	default:
		if msg.ID != nil {
			return s.reply(msg.ID, nil)
		}
		return nil
	}
}

func (s *Server) reply(id json.RawMessage, result interface{}) error {
	return writeMessage(s.w, map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	})
}

// updateDocument reparses and regenerates code for uri's new text,
// caching the result and publishing fresh diagnostics — the language
// server invokes the core once per change and caches what it gets
// back, per spec's concurrency model.
func (s *Server) updateDocument(uri, text string) error {
	filename := strings.TrimPrefix(uri, "file://")
	tree, _, sink := asm6502.Parse(filename, text, nil)
	_, symtab := asm6502.Assemble(tree, asm6502.Options{}, sink)
	s.docs[uri] = &document{text: text, tree: tree, symtab: symtab}
	return s.publishDiagnostics(uri, sink)
}

func (s *Server) publishDiagnostics(uri string, sink *asm6502.ErrorSink) error {
	type lspPosition struct {
		Line      int `json:"line"`
		Character int `json:"character"`
	}
	type lspRange struct {
		Start lspPosition `json:"start"`
		End   lspPosition `json:"end"`
	}
	type lspDiagnostic struct {
		Range    lspRange `json:"range"`
		Severity int      `json:"severity"`
		Message  string   `json:"message"`
	}

	var diags []lspDiagnostic
	for _, d := range sink.Diagnostics() {
		var r lspRange
		if d.Span.IsValid() {
			begin, end := d.Span.Begin_(), d.Span.End_()
			r = lspRange{
				Start: lspPosition{Line: begin.Line - 1, Character: begin.Column - 1},
				End:   lspPosition{Line: end.Line - 1, Character: end.Column - 1},
			}
		}
		diags = append(diags, lspDiagnostic{
			Range:    r,
			Severity: lspSeverity(d.Severity),
			Message:  d.Message,
		})
	}

	return writeMessage(s.w, map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  "textDocument/publishDiagnostics",
		"params": map[string]interface{}{
			"uri":         uri,
			"diagnostics": diags,
		},
	})
}

func lspSeverity(sev asm6502.Severity) int {
	switch sev {
	case asm6502.SeverityError:
		return 1
	case asm6502.SeverityWarning:
		return 2
	default:
		return 3
	}
}

func (s *Server) completionItems(uri string) []map[string]interface{} {
	doc, ok := s.docs[uri]
	if !ok {
		return nil
	}
	var items []map[string]interface{}
	for _, name := range doc.symtab.Complete("") {
		items = append(items, map[string]interface{}{
			"label": name,
			"kind":  6, // Variable, per LSP's CompletionItemKind
		})
	}
	return items
}

// definitionLocation resolves the identifier under the given
// line/character position to its declaration site, via
// SymbolTable.Resolve — the editor may send an unambiguous
// abbreviation rather than a symbol's full dotted path, which is
// exactly what Resolve's prefix trie is for. Returns nil (a null LSP
// response) if there's no document, no word at the position, or no
// unambiguous match.
func (s *Server) definitionLocation(uri string, line, character int) map[string]interface{} {
	doc, ok := s.docs[uri]
	if !ok {
		return nil
	}
	word, ok := wordAt(doc.text, line, character)
	if !ok {
		return nil
	}
	sym, err := doc.symtab.Resolve(word)
	if err != nil || sym == nil || !sym.DefinedAt.IsValid() {
		return nil
	}
	begin, end := sym.DefinedAt.Begin_(), sym.DefinedAt.End_()
	return map[string]interface{}{
		"uri": uri,
		"range": map[string]interface{}{
			"start": map[string]interface{}{"line": begin.Line - 1, "character": begin.Column - 1},
			"end":   map[string]interface{}{"line": end.Line - 1, "character": end.Column - 1},
		},
	}
}

// wordAt extracts the run of identifier characters (including '.' for
// qualified paths) touching the given 0-based line/character position.
func wordAt(text string, line, character int) (string, bool) {
	lines := strings.Split(text, "\n")
	if line < 0 || line >= len(lines) {
		return "", false
	}
	lineText := lines[line]
	if character < 0 {
		character = 0
	}
	if character > len(lineText) {
		character = len(lineText)
	}
	start := character
	for start > 0 && isWordByte(lineText[start-1]) {
		start--
	}
	end := character
	for end < len(lineText) && isWordByte(lineText[end]) {
		end++
	}
	if start == end {
		return "", false
	}
	return lineText[start:end], true
}

func isWordByte(c byte) bool {
	return c == '_' || c == '.' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
