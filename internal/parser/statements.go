package parser

import (
	"fmt"

	"github.com/chriserin/vero/internal/diag"
	"github.com/chriserin/vero/internal/lexer"
)

// parseStatement parses one statement. It returns nil after reporting a
// diagnostic; the caller resynchronizes.
func (p *parser) parseStatement() Statement {
	tok := p.peek()
	if tok.Kind == lexer.Identifier {
		p.unknownKeyword(tok, fmt.Sprintf("Unknown statement '%s'", tok.Text), sortedKeys(statementStarts))
		return nil
	}
	if tok.Kind != lexer.Keyword {
		p.errorAt(diag.UnexpectedToken, tok, fmt.Sprintf("Unexpected %s; expected a statement", tok))
		return nil
	}

	switch tok.Text {
	case "CLICK":
		p.advance()
		if t := p.parseTarget("CLICK"); t != nil {
			return &Click{Pos: posOf(tok), Target: t}
		}
	case "FILL":
		return p.parseFill()
	case "OPEN":
		return p.parseOpen()
	case "VERIFY":
		return p.parseVerify()
	case "DO":
		p.advance()
		if call := p.parseCall(); call != nil {
			return &Do{Pos: posOf(tok), Call: call}
		}
	case "WAIT":
		return p.parseWait()
	case "REFRESH":
		p.advance()
		return &Refresh{Pos: posOf(tok)}
	case "CHECK", "UNCHECK":
		p.advance()
		if t := p.parseTarget(tok.Text); t != nil {
			return &Check{Pos: posOf(tok), Target: t, Uncheck: tok.Text == "UNCHECK"}
		}
	case "HOVER":
		p.advance()
		if t := p.parseTarget("HOVER"); t != nil {
			return &Hover{Pos: posOf(tok), Target: t}
		}
	case "PRESS":
		return p.parsePress()
	case "SELECT":
		return p.parseSelect()
	case "UPLOAD":
		return p.parseUpload()
	case "LOG":
		p.advance()
		if e := p.parseExpr("a message after LOG"); e != nil {
			return &Log{Pos: posOf(tok), Message: e}
		}
	case "TAKE":
		return p.parseScreenshot()
	case "SCROLL":
		return p.parseScroll()
	case "DOWNLOAD":
		return p.parseDownload()
	case "SET", "GET", "CLEAR":
		return p.parseBrowserState()
	case "SWITCH", "CLOSE":
		return p.parseTab()
	case "REPEAT":
		return p.parseRepeat()
	case "TEXT", "NUMBER", "FLAG", "LIST":
		return p.parseLet()
	case "RETURN":
		p.advance()
		if e := p.parseExpr("a value after RETURN"); e != nil {
			return &Return{Pos: posOf(tok), Value: e}
		}
	default:
		p.errorAt(diag.UnexpectedToken, tok, fmt.Sprintf("Unexpected %s; expected a statement", tok))
	}
	return nil
}

// clause consumes the keyword kw. When it is absent, code is reported and
// parsing goes on as if it were present provided the next token can start
// what kw introduces.
func (p *parser) clause(kw string, code diag.Code, msg string, fits func(lexer.Token) bool) bool {
	if p.match(kw) {
		return true
	}
	tok := p.peek()
	p.errorAt(code, tok, msg)
	return fits(tok) && tok.Line == p.previous().Line
}

func (p *parser) parseFill() Statement {
	kw := p.advance()
	t := p.parseTarget("FILL")
	if t == nil {
		return nil
	}
	if !p.clause("WITH", diag.MissingWith, "Expected WITH after FILL target", isExprStart) {
		return nil
	}
	v := p.parseExpr("a value after WITH")
	if v == nil {
		return nil
	}
	return &Fill{Pos: posOf(kw), Target: t, Value: v}
}

func (p *parser) parseOpen() Statement {
	kw := p.advance()
	url := p.parseExpr("a URL after OPEN")
	if url == nil {
		return nil
	}
	stmt := &Open{Pos: posOf(kw), URL: url}
	if p.match("IN") {
		if !p.match("NEW") || !p.match("TAB") {
			p.errorAt(diag.MissingKeyword, p.peek(), "Expected NEW TAB after IN")
			return nil
		}
		stmt.NewTab = true
	}
	return stmt
}

func (p *parser) parseVerify() Statement {
	kw := p.advance()
	stmt := &Verify{Pos: posOf(kw)}

	switch {
	case p.check("URL"), p.check("TITLE"):
		subject := p.advance()
		stmt.Subject = SubjectURL
		if subject.Text == "TITLE" {
			stmt.Subject = SubjectTitle
		}
	default:
		stmt.Target = p.parseTarget("VERIFY")
		if stmt.Target == nil {
			return nil
		}
	}

	switch {
	case p.match("NOT"):
		stmt.Negated = true
		if !p.match("CONTAINS") {
			p.errorAt(diag.MissingKeyword, p.peek(), "Expected CONTAINS after NOT")
			return nil
		}
		stmt.Op = OpContains
	case p.match("CONTAINS"):
		stmt.Op = OpContains
	case p.match("IS"):
		stmt.Op = OpIs
		stmt.Negated = p.match("NOT")
		if state, ok := stateWords[p.peek().Text]; ok && p.peek().Kind == lexer.Keyword {
			if stmt.Subject != SubjectTarget {
				p.errorAt(diag.UnexpectedToken, p.peek(), fmt.Sprintf("%s cannot be checked against URL or TITLE", p.peek().Text))
				return nil
			}
			p.advance()
			stmt.State = state
			return stmt
		}
	default:
		p.errorAt(diag.MissingKeyword, p.peek(), "Expected IS or CONTAINS in VERIFY")
		return nil
	}

	stmt.Value = p.parseExpr("a value to compare against")
	if stmt.Value == nil {
		return nil
	}
	return stmt
}

func (p *parser) parseWait() Statement {
	kw := p.advance()
	stmt := &Wait{Pos: posOf(kw)}

	if !p.match("FOR") {
		stmt.Mode = WaitDuration
		stmt.Duration = p.parseExpr("a duration or FOR after WAIT")
		if stmt.Duration == nil {
			return nil
		}
		switch {
		case p.match("SECONDS"):
		case p.match("MILLISECONDS"):
			stmt.Unit = Milliseconds
		}
		return stmt
	}

	switch {
	case p.match("NAVIGATION"):
		stmt.Mode = WaitNavigation
	case p.match("NETWORK"):
		if !p.match("IDLE") {
			p.errorAt(diag.MissingKeyword, p.peek(), "Expected IDLE after WAIT FOR NETWORK")
			return nil
		}
		stmt.Mode = WaitNetworkIdle
	case p.match("URL"):
		stmt.Mode = WaitURL
		switch {
		case p.match("CONTAINS"):
			stmt.URLOp = OpContains
		case p.match("IS"):
			stmt.URLOp = OpIs
		default:
			p.errorAt(diag.MissingKeyword, p.peek(), "Expected CONTAINS or IS after WAIT FOR URL")
			return nil
		}
		stmt.URL = p.parseExpr("a URL to wait for")
		if stmt.URL == nil {
			return nil
		}
	default:
		stmt.Mode = WaitTarget
		stmt.Target = p.parseTarget("WAIT FOR")
		if stmt.Target == nil {
			return nil
		}
	}
	return stmt
}

func (p *parser) parsePress() Statement {
	kw := p.advance()
	key := p.parseExpr("a key after PRESS")
	if key == nil {
		return nil
	}
	stmt := &Press{Pos: posOf(kw), Key: key}
	if p.match("ON") {
		if stmt.Target = p.parseTarget("PRESS ... ON"); stmt.Target == nil {
			return nil
		}
	}
	return stmt
}

func (p *parser) parseSelect() Statement {
	kw := p.advance()
	value := p.parseExpr("an option after SELECT")
	if value == nil {
		return nil
	}
	if !p.clause("FROM", diag.MissingFrom, "Expected FROM after SELECT option", isTargetStart) {
		return nil
	}
	t := p.parseTarget("SELECT ... FROM")
	if t == nil {
		return nil
	}
	return &Select{Pos: posOf(kw), Value: value, Target: t}
}

func (p *parser) parseUpload() Statement {
	kw := p.advance()
	file := p.parseExpr("a file path after UPLOAD")
	if file == nil {
		return nil
	}
	if !p.clause("TO", diag.MissingKeyword, "Expected TO after UPLOAD file", isTargetStart) {
		return nil
	}
	t := p.parseTarget("UPLOAD ... TO")
	if t == nil {
		return nil
	}
	return &Upload{Pos: posOf(kw), File: file, Target: t}
}

func (p *parser) parseScreenshot() Statement {
	kw := p.advance()
	if !p.match("SCREENSHOT") {
		p.errorAt(diag.MissingKeyword, p.peek(), "Expected SCREENSHOT after TAKE")
		return nil
	}
	stmt := &Screenshot{Pos: posOf(kw)}
	if p.match("AS") {
		name := p.peek()
		if name.Kind != lexer.String {
			p.errorAt(diag.IncompleteStatement, name, "Expected a file name after AS")
			return nil
		}
		stmt.Filename = p.advance().Text
	}
	return stmt
}

func (p *parser) parseScroll() Statement {
	kw := p.advance()
	stmt := &Scroll{Pos: posOf(kw)}
	switch {
	case p.match("DOWN"):
		stmt.Direction = ScrollDown
	case p.match("UP"):
		stmt.Direction = ScrollUp
	case p.match("TO"):
		stmt.Direction = ScrollToTarget
		if stmt.Target = p.parseTarget("SCROLL TO"); stmt.Target == nil {
			return nil
		}
	default:
		p.errorAt(diag.MissingKeyword, p.peek(), "Expected UP, DOWN or TO after SCROLL")
		return nil
	}
	return stmt
}

func (p *parser) parseDownload() Statement {
	kw := p.advance()
	if !p.clause("FROM", diag.MissingFrom, "Expected FROM after DOWNLOAD", isTargetStart) {
		return nil
	}
	t := p.parseTarget("DOWNLOAD FROM")
	if t == nil {
		return nil
	}
	stmt := &Download{Pos: posOf(kw), Target: t}
	if p.match("AS") {
		name := p.peek()
		if name.Kind != lexer.String {
			p.errorAt(diag.IncompleteStatement, name, "Expected a file name after AS")
			return nil
		}
		stmt.SaveAs = p.advance().Text
	}
	return stmt
}

// parseBrowserState parses SET/GET/CLEAR on cookies or local storage.
func (p *parser) parseBrowserState() Statement {
	verb := p.advance()
	subject := p.peek()

	var cookie bool
	switch {
	case verb.Text == "CLEAR" && (subject.Is("COOKIES") || subject.Is("COOKIE")):
		cookie = true
	case verb.Text != "CLEAR" && subject.Is("COOKIE"):
		cookie = true
	case subject.Is("STORAGE"):
	default:
		want := "COOKIE or STORAGE"
		if verb.Text == "CLEAR" {
			want = "COOKIES or STORAGE"
		}
		p.errorAt(diag.MissingKeyword, subject, fmt.Sprintf("Expected %s after %s", want, verb.Text))
		return nil
	}
	p.advance()

	var (
		op      StateOp
		key     Expr
		value   Expr
		into    string
		intoPos Pos
	)
	switch verb.Text {
	case "CLEAR":
		op = StateClear
	case "SET":
		op = StateSet
		if key = p.parseExpr("a key after SET " + subject.Text); key == nil {
			return nil
		}
		if !p.clause("TO", diag.MissingKeyword, "Expected TO after the key", isExprStart) {
			return nil
		}
		if value = p.parseExpr("a value after TO"); value == nil {
			return nil
		}
	case "GET":
		op = StateGet
		if key = p.parseExpr("a key after GET " + subject.Text); key == nil {
			return nil
		}
		if !p.match("AS") {
			p.errorAt(diag.MissingKeyword, p.peek(), "Expected AS <name> after the key")
			return nil
		}
		name, ok := p.expectName("a variable name after AS")
		if !ok {
			return nil
		}
		into, intoPos = name.Text, posOf(name)
	}

	if cookie {
		return &Cookie{Pos: posOf(verb), Op: op, Key: key, Value: value, Into: into, IntoPos: intoPos}
	}
	return &Storage{Pos: posOf(verb), Op: op, Key: key, Value: value, Into: into, IntoPos: intoPos}
}

func (p *parser) parseTab() Statement {
	kw := p.advance()
	if kw.Text == "CLOSE" {
		if !p.match("TAB") {
			p.errorAt(diag.MissingKeyword, p.peek(), "Expected TAB after CLOSE")
			return nil
		}
		return &Tab{Pos: posOf(kw), Op: TabClose}
	}

	if !p.match("TO") {
		p.errorAt(diag.MissingKeyword, p.peek(), "Expected TO after SWITCH")
		return nil
	}
	switch {
	case p.match("NEW"):
		if !p.match("TAB") {
			p.errorAt(diag.MissingKeyword, p.peek(), "Expected TAB after SWITCH TO NEW")
			return nil
		}
		stmt := &Tab{Pos: posOf(kw), Op: TabNew}
		if isExprStart(p.peek()) && p.peek().Line == p.previous().Line {
			stmt.URL = p.parseExpr("a URL")
		}
		return stmt
	case p.match("TAB"):
		idx := p.parseExpr("a tab number after SWITCH TO TAB")
		if idx == nil {
			return nil
		}
		return &Tab{Pos: posOf(kw), Op: TabSwitch, Index: idx}
	}
	p.errorAt(diag.MissingKeyword, p.peek(), "Expected NEW TAB or TAB <n> after SWITCH TO")
	return nil
}

func (p *parser) parseRepeat() Statement {
	kw := p.advance()
	count := p.parseExpr("a count after REPEAT")
	if count == nil {
		return nil
	}
	if !p.clause("TIMES", diag.MissingTimes, "Expected TIMES after REPEAT count", func(t lexer.Token) bool { return t.Is("{") }) {
		return nil
	}
	open, _ := p.expectOpenBrace("REPEAT")
	return &Repeat{Pos: posOf(kw), Count: count, Body: p.parseBody(open, "REPEAT")}
}

// parseLet parses `TYPE name = expr` or `TYPE name = DO call`.
func (p *parser) parseLet() Statement {
	kw := p.advance()
	name, ok := p.expectName("a variable name after " + kw.Text)
	if !ok {
		return nil
	}
	if !p.expectOperator("=", "after variable name") {
		return nil
	}
	stmt := &Let{Pos: posOf(kw), Type: varType(kw), Name: name.Text, NamePos: posOf(name)}
	if p.match("DO") {
		if stmt.Call = p.parseCall(); stmt.Call == nil {
			return nil
		}
		return stmt
	}
	if stmt.Value = p.parseExpr("a value after '='"); stmt.Value == nil {
		return nil
	}
	return stmt
}
