package transpiler

import (
	"fmt"
	"path"
	"strconv"

	"github.com/chriserin/vero/internal/parser"
)

type lowerFunc func(g *gen, s parser.Statement) error

// lowerings has one entry per statement kind. It is filled in init because
// lowerRepeat reaches back into the table through body.
var lowerings [parser.NumStmtKinds]lowerFunc

func init() {
	lowerings = [parser.NumStmtKinds]lowerFunc{
		parser.StmtClick:      lowerClick,
		parser.StmtFill:       lowerFill,
		parser.StmtOpen:       lowerOpen,
		parser.StmtVerify:     lowerVerify,
		parser.StmtDo:         lowerDo,
		parser.StmtWait:       lowerWait,
		parser.StmtRefresh:    lowerRefresh,
		parser.StmtCheck:      lowerCheck,
		parser.StmtHover:      lowerHover,
		parser.StmtPress:      lowerPress,
		parser.StmtSelect:     lowerSelect,
		parser.StmtUpload:     lowerUpload,
		parser.StmtLog:        lowerLog,
		parser.StmtScreenshot: lowerScreenshot,
		parser.StmtScroll:     lowerScroll,
		parser.StmtDownload:   lowerDownload,
		parser.StmtCookie:     lowerCookie,
		parser.StmtStorage:    lowerStorage,
		parser.StmtTab:        lowerTab,
		parser.StmtRepeat:     lowerRepeat,
		parser.StmtLet:        lowerLet,
		parser.StmtReturn:     lowerReturn,
	}
}

func (g *gen) body(stmts []parser.Statement) error {
	for _, s := range stmts {
		if err := g.statement(s); err != nil {
			return err
		}
	}
	return nil
}

func (g *gen) statement(s parser.Statement) error {
	k := s.Kind()
	if k < 0 || k >= parser.NumStmtKinds || lowerings[k] == nil {
		return fmt.Errorf("%w: kind %s at line %d", ErrNoLowering, k, s.Position().Line)
	}
	return lowerings[k](g, s)
}

// targetCall writes `await <target>.<method>(<args>);`.
func (g *gen) targetCall(t *parser.Target, method, args string) error {
	loc, err := g.target(t)
	if err != nil {
		return err
	}
	g.w.linef("await %s.%s(%s);", loc, method, args)
	return nil
}

func lowerClick(g *gen, s parser.Statement) error {
	return g.targetCall(s.(*parser.Click).Target, "click", "")
}

func lowerFill(g *gen, s parser.Statement) error {
	st := s.(*parser.Fill)
	value, err := g.text(st.Value)
	if err != nil {
		return err
	}
	return g.targetCall(st.Target, "fill", value)
}

func lowerOpen(g *gen, s parser.Statement) error {
	st := s.(*parser.Open)
	url, err := g.text(st.URL)
	if err != nil {
		return err
	}
	if st.NewTab {
		if err := g.newTab(st.Pos); err != nil {
			return err
		}
	}
	g.w.linef("await %s.goto(%s);", g.pageVar, url)
	return nil
}

var stateMatchers = map[parser.State]string{
	parser.StateVisible:  "toBeVisible",
	parser.StateHidden:   "toBeHidden",
	parser.StateEnabled:  "toBeEnabled",
	parser.StateDisabled: "toBeDisabled",
	parser.StateChecked:  "toBeChecked",
	parser.StateEmpty:    "toBeEmpty",
}

func lowerVerify(g *gen, s parser.Statement) error {
	st := s.(*parser.Verify)
	g.mod.expect = true
	not := ""
	if st.Negated {
		not = ".not"
	}

	if st.Subject != parser.SubjectTarget {
		value, err := g.text(st.Value)
		if err != nil {
			return err
		}
		getter, matcher := "url", "toHaveURL"
		if st.Subject == parser.SubjectTitle {
			getter, matcher = "title", "toHaveTitle"
		}
		if st.Op == parser.OpContains {
			g.w.linef("await expect.poll(() => %s.%s())%s.toContain(%s);", g.pageVar, getter, not, value)
			return nil
		}
		g.w.linef("await expect(%s)%s.%s(%s);", g.pageVar, not, matcher, value)
		return nil
	}

	loc, err := g.target(st.Target)
	if err != nil {
		return err
	}
	if st.State != parser.StateNone {
		g.w.linef("await expect(%s)%s.%s();", loc, not, stateMatchers[st.State])
		return nil
	}
	value, err := g.text(st.Value)
	if err != nil {
		return err
	}
	matcher := "toHaveText"
	if st.Op == parser.OpContains {
		matcher = "toContainText"
	}
	g.w.linef("await expect(%s)%s.%s(%s);", loc, not, matcher, value)
	return nil
}

func lowerDo(g *gen, s parser.Statement) error {
	call, err := g.call(s.(*parser.Do).Call)
	if err != nil {
		return err
	}
	g.w.line(call + ";")
	return nil
}

func lowerWait(g *gen, s parser.Statement) error {
	st := s.(*parser.Wait)
	switch st.Mode {
	case parser.WaitDuration:
		ms, err := g.millis(st.Duration, st.Unit)
		if err != nil {
			return err
		}
		g.w.linef("await %s.waitForTimeout(%s);", g.pageVar, ms)
	case parser.WaitNavigation:
		g.w.linef("await %s.waitForLoadState('load');", g.pageVar)
	case parser.WaitNetworkIdle:
		g.w.linef("await %s.waitForLoadState('networkidle');", g.pageVar)
	case parser.WaitURL:
		url, err := g.text(st.URL)
		if err != nil {
			return err
		}
		if st.URLOp == parser.OpContains {
			g.w.linef("await %s.waitForURL((u) => u.href.includes(%s));", g.pageVar, url)
		} else {
			g.w.linef("await %s.waitForURL(%s);", g.pageVar, url)
		}
	case parser.WaitTarget:
		return g.targetCall(st.Target, "waitFor", "{ state: 'visible' }")
	}
	return nil
}

// millis converts a WAIT duration to milliseconds, folding literals.
func (g *gen) millis(e parser.Expr, unit parser.TimeUnit) (string, error) {
	if n, ok := e.(*parser.NumberLit); ok {
		v := n.Value
		if unit == parser.Seconds {
			v *= 1000
		}
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	}
	s, err := g.number(e)
	if err != nil {
		return "", err
	}
	if unit == parser.Seconds {
		return s + " * 1000", nil
	}
	return s, nil
}

func lowerRefresh(g *gen, s parser.Statement) error {
	g.w.linef("await %s.reload();", g.pageVar)
	return nil
}

func lowerCheck(g *gen, s parser.Statement) error {
	st := s.(*parser.Check)
	if st.Uncheck {
		return g.targetCall(st.Target, "uncheck", "")
	}
	return g.targetCall(st.Target, "check", "")
}

func lowerHover(g *gen, s parser.Statement) error {
	return g.targetCall(s.(*parser.Hover).Target, "hover", "")
}

func lowerPress(g *gen, s parser.Statement) error {
	st := s.(*parser.Press)
	key, err := g.text(st.Key)
	if err != nil {
		return err
	}
	if st.Target != nil {
		return g.targetCall(st.Target, "press", key)
	}
	g.w.linef("await %s.keyboard.press(%s);", g.pageVar, key)
	return nil
}

func lowerSelect(g *gen, s parser.Statement) error {
	st := s.(*parser.Select)
	value, err := g.text(st.Value)
	if err != nil {
		return err
	}
	return g.targetCall(st.Target, "selectOption", value)
}

func lowerUpload(g *gen, s parser.Statement) error {
	st := s.(*parser.Upload)
	file, err := g.text(st.File)
	if err != nil {
		return err
	}
	return g.targetCall(st.Target, "setInputFiles", file)
}

func lowerLog(g *gen, s parser.Statement) error {
	msg, err := g.expr(s.(*parser.Log).Message)
	if err != nil {
		return err
	}
	g.w.linef("console.log(%s);", msg)
	return nil
}

func lowerScreenshot(g *gen, s parser.Statement) error {
	st := s.(*parser.Screenshot)
	name := st.Filename
	if name == "" {
		name = fmt.Sprintf("screenshot-%d.png", st.Line)
	}
	g.w.linef("await %s.screenshot({ path: %s });", g.pageVar, jsString(path.Join(g.opts.ScreenshotDir, name)))
	return nil
}

func lowerScroll(g *gen, s parser.Statement) error {
	st := s.(*parser.Scroll)
	switch st.Direction {
	case parser.ScrollDown:
		g.w.linef("await %s.mouse.wheel(0, %d);", g.pageVar, g.opts.ScrollAmount)
	case parser.ScrollUp:
		g.w.linef("await %s.mouse.wheel(0, %d);", g.pageVar, -g.opts.ScrollAmount)
	case parser.ScrollToTarget:
		return g.targetCall(st.Target, "scrollIntoViewIfNeeded", "")
	}
	return nil
}

func lowerDownload(g *gen, s parser.Statement) error {
	st := s.(*parser.Download)
	loc, err := g.target(st.Target)
	if err != nil {
		return err
	}
	g.w.open("{")
	g.w.open("const [download] = await Promise.all([")
	g.w.linef("%s.waitForEvent('download'),", g.pageVar)
	g.w.linef("%s.click(),", loc)
	g.w.close("]);")
	if st.SaveAs != "" {
		g.w.linef("await download.saveAs(%s);", jsString(st.SaveAs))
	} else {
		g.w.line("await download.path();")
	}
	g.w.close("}")
	return nil
}

func lowerCookie(g *gen, s parser.Statement) error {
	st := s.(*parser.Cookie)
	ctx := g.pageVar + ".context()"
	switch st.Op {
	case parser.StateSet:
		key, value, err := g.keyValue(st.Key, st.Value)
		if err != nil {
			return err
		}
		g.w.linef("await %s.addCookies([{ name: %s, value: %s, url: %s.url() }]);", ctx, key, value, g.pageVar)
	case parser.StateGet:
		key, err := g.text(st.Key)
		if err != nil {
			return err
		}
		g.w.linef("const %s = (await %s.cookies()).find((c) => c.name === %s)?.value ?? '';", g.local(st.Into), ctx, key)
	case parser.StateClear:
		g.w.linef("await %s.clearCookies();", ctx)
	}
	return nil
}

func lowerStorage(g *gen, s parser.Statement) error {
	st := s.(*parser.Storage)
	switch st.Op {
	case parser.StateSet:
		key, value, err := g.keyValue(st.Key, st.Value)
		if err != nil {
			return err
		}
		g.w.linef("await %s.evaluate(([k, v]) => window.localStorage.setItem(k, v), [%s, %s]);", g.pageVar, key, value)
	case parser.StateGet:
		key, err := g.text(st.Key)
		if err != nil {
			return err
		}
		g.w.linef("const %s = (await %s.evaluate((k) => window.localStorage.getItem(k), %s)) ?? '';", g.local(st.Into), g.pageVar, key)
	case parser.StateClear:
		g.w.linef("await %s.evaluate(() => window.localStorage.clear());", g.pageVar)
	}
	return nil
}

func (g *gen) keyValue(k, v parser.Expr) (string, string, error) {
	key, err := g.text(k)
	if err != nil {
		return "", "", err
	}
	value, err := g.text(v)
	if err != nil {
		return "", "", err
	}
	return key, value, nil
}

// newTab replaces the current page with a fresh tab. Only feature bodies
// may do this; the validator rejects tab statements elsewhere.
func (g *gen) newTab(pos parser.Pos) error {
	if !g.tabs {
		return g.invalid(pos, "tab statement outside a scenario or per-test hook")
	}
	g.w.linef("%s = await context.newPage();", g.pageVar)
	return nil
}

func lowerTab(g *gen, s parser.Statement) error {
	st := s.(*parser.Tab)
	switch st.Op {
	case parser.TabNew:
		if err := g.newTab(st.Pos); err != nil {
			return err
		}
		if st.URL != nil {
			url, err := g.text(st.URL)
			if err != nil {
				return err
			}
			g.w.linef("await %s.goto(%s);", g.pageVar, url)
		}
	case parser.TabSwitch:
		if !g.tabs {
			return g.invalid(st.Pos, "tab statement outside a scenario or per-test hook")
		}
		index, err := g.tabIndex(st.Index)
		if err != nil {
			return err
		}
		g.w.linef("%s = context.pages()[%s];", g.pageVar, index)
		g.w.linef("await %s.bringToFront();", g.pageVar)
	case parser.TabClose:
		if !g.tabs {
			return g.invalid(st.Pos, "tab statement outside a scenario or per-test hook")
		}
		g.w.linef("await %s.close();", g.pageVar)
		g.w.linef("%s = context.pages()[context.pages().length - 1];", g.pageVar)
	}
	return nil
}

// tabIndex converts a 1-based tab number to a 0-based index.
func (g *gen) tabIndex(e parser.Expr) (string, error) {
	if n, ok := e.(*parser.NumberLit); ok {
		return strconv.Itoa(int(n.Value) - 1), nil
	}
	s, err := g.number(e)
	if err != nil {
		return "", err
	}
	return s + " - 1", nil
}

var loopVars = []string{"i", "j", "k"}

func lowerRepeat(g *gen, s parser.Statement) error {
	st := s.(*parser.Repeat)
	count, err := g.number(st.Count)
	if err != nil {
		return err
	}
	v := fmt.Sprintf("i%d", g.depth)
	if g.depth < len(loopVars) {
		v = loopVars[g.depth]
	}
	g.w.openf("for (let %s = 0; %s < %s; %s++) {", v, v, count, v)
	g.depth++
	err = g.body(st.Body)
	g.depth--
	if err != nil {
		return err
	}
	g.w.close("}")
	return nil
}

func lowerLet(g *gen, s parser.Statement) error {
	st := s.(*parser.Let)
	var value string
	var err error
	if st.Call != nil {
		value, err = g.call(st.Call)
	} else {
		value, err = g.expr(st.Value)
	}
	if err != nil {
		return err
	}
	g.w.linef("const %s = %s;", g.local(st.Name), value)
	return nil
}

func lowerReturn(g *gen, s parser.Statement) error {
	value, err := g.expr(s.(*parser.Return).Value)
	if err != nil {
		return err
	}
	g.w.linef("return %s;", value)
	return nil
}
