package parser

// Expr is a value expression.
type Expr interface {
	Position() Pos
	exprNode()
}

type StringLit struct {
	Pos
	Value string
}

type NumberLit struct {
	Pos
	Value float64
	Raw   string
}

type BoolLit struct {
	Pos
	Value bool
}

// ListLit only appears as the value of a LIST variable.
type ListLit struct {
	Pos
	Items []Expr
}

// VarRef reads a variable, parameter or local; Page is set when qualified.
type VarRef struct {
	Pos
	Page string
	Name string
}

// Generate produces a random string matching a regular-expression pattern.
type Generate struct {
	Pos
	Pattern string
}

type RandomNumber struct {
	Pos
	Min Expr
	Max Expr
}

type UUID struct {
	Pos
}

func (StringLit) exprNode()    {}
func (NumberLit) exprNode()    {}
func (BoolLit) exprNode()      {}
func (ListLit) exprNode()      {}
func (VarRef) exprNode()       {}
func (Generate) exprNode()     {}
func (RandomNumber) exprNode() {}
func (UUID) exprNode()         {}

// StmtKind enumerates statement variants. NumStmtKinds bounds the enum so
// tables indexed by kind can be checked for completeness.
type StmtKind int

const (
	StmtClick StmtKind = iota
	StmtFill
	StmtOpen
	StmtVerify
	StmtDo
	StmtWait
	StmtRefresh
	StmtCheck
	StmtHover
	StmtPress
	StmtSelect
	StmtUpload
	StmtLog
	StmtScreenshot
	StmtScroll
	StmtDownload
	StmtCookie
	StmtStorage
	StmtTab
	StmtRepeat
	StmtLet
	StmtReturn
	NumStmtKinds
)

var stmtKindNames = [NumStmtKinds]string{
	StmtClick:      "CLICK",
	StmtFill:       "FILL",
	StmtOpen:       "OPEN",
	StmtVerify:     "VERIFY",
	StmtDo:         "DO",
	StmtWait:       "WAIT",
	StmtRefresh:    "REFRESH",
	StmtCheck:      "CHECK",
	StmtHover:      "HOVER",
	StmtPress:      "PRESS",
	StmtSelect:     "SELECT",
	StmtUpload:     "UPLOAD",
	StmtLog:        "LOG",
	StmtScreenshot: "TAKE SCREENSHOT",
	StmtScroll:     "SCROLL",
	StmtDownload:   "DOWNLOAD",
	StmtCookie:     "COOKIE",
	StmtStorage:    "STORAGE",
	StmtTab:        "TAB",
	StmtRepeat:     "REPEAT",
	StmtLet:        "LET",
	StmtReturn:     "RETURN",
}

func (k StmtKind) String() string {
	if k >= 0 && k < NumStmtKinds {
		return stmtKindNames[k]
	}
	return "UNKNOWN"
}

// Statement is one executable step.
type Statement interface {
	Kind() StmtKind
	Position() Pos
}

type Click struct {
	Pos
	Target *Target
}

type Fill struct {
	Pos
	Target *Target
	Value  Expr
}

type Open struct {
	Pos
	URL    Expr
	NewTab bool
}

type VerifySubject int

const (
	SubjectTarget VerifySubject = iota
	SubjectURL
	SubjectTitle
)

type VerifyOp int

const (
	OpIs VerifyOp = iota
	OpContains
)

type State int

const (
	StateNone State = iota
	StateVisible
	StateHidden
	StateEnabled
	StateDisabled
	StateChecked
	StateEmpty
)

var stateWords = map[string]State{
	"VISIBLE":  StateVisible,
	"HIDDEN":   StateHidden,
	"ENABLED":  StateEnabled,
	"DISABLED": StateDisabled,
	"CHECKED":  StateChecked,
	"EMPTY":    StateEmpty,
}

// Verify asserts a condition. Exactly one of State and Value is set.
type Verify struct {
	Pos
	Subject VerifySubject
	Target  *Target
	Negated bool
	Op      VerifyOp
	State   State
	Value   Expr
}

type Do struct {
	Pos
	Call *Call
}

type WaitMode int

const (
	WaitDuration WaitMode = iota
	WaitNavigation
	WaitNetworkIdle
	WaitURL
	WaitTarget
)

type TimeUnit int

const (
	Seconds TimeUnit = iota
	Milliseconds
)

type Wait struct {
	Pos
	Mode     WaitMode
	Duration Expr
	Unit     TimeUnit
	URLOp    VerifyOp
	URL      Expr
	Target   *Target
}

type Refresh struct {
	Pos
}

type Check struct {
	Pos
	Target  *Target
	Uncheck bool
}

type Hover struct {
	Pos
	Target *Target
}

// Press sends a key to the page, or to Target when set.
type Press struct {
	Pos
	Key    Expr
	Target *Target
}

type Select struct {
	Pos
	Value  Expr
	Target *Target
}

type Upload struct {
	Pos
	File   Expr
	Target *Target
}

type Log struct {
	Pos
	Message Expr
}

type Screenshot struct {
	Pos
	Filename string
}

type ScrollDirection int

const (
	ScrollDown ScrollDirection = iota
	ScrollUp
	ScrollToTarget
)

type Scroll struct {
	Pos
	Direction ScrollDirection
	Target    *Target
}

type Download struct {
	Pos
	Target *Target
	SaveAs string
}

type StateOp int

const (
	StateSet StateOp = iota
	StateGet
	StateClear
)

// Cookie reads or writes browser-context cookies. Into names the local
// declared by GET.
type Cookie struct {
	Pos
	Op      StateOp
	Key     Expr
	Value   Expr
	Into    string
	IntoPos Pos
}

// Storage reads or writes the page's localStorage.
type Storage struct {
	Pos
	Op      StateOp
	Key     Expr
	Value   Expr
	Into    string
	IntoPos Pos
}

type TabOp int

const (
	TabNew TabOp = iota
	TabSwitch
	TabClose
)

type Tab struct {
	Pos
	Op    TabOp
	URL   Expr
	Index Expr
}

type Repeat struct {
	Pos
	Count Expr
	Body  []Statement
}

// Let declares a local. Its value is either Value or the result of Call.
type Let struct {
	Pos
	Type    VarType
	Name    string
	NamePos Pos
	Value   Expr
	Call    *Call
}

type Return struct {
	Pos
	Value Expr
}

func (*Click) Kind() StmtKind      { return StmtClick }
func (*Fill) Kind() StmtKind       { return StmtFill }
func (*Open) Kind() StmtKind       { return StmtOpen }
func (*Verify) Kind() StmtKind     { return StmtVerify }
func (*Do) Kind() StmtKind         { return StmtDo }
func (*Wait) Kind() StmtKind       { return StmtWait }
func (*Refresh) Kind() StmtKind    { return StmtRefresh }
func (*Check) Kind() StmtKind      { return StmtCheck }
func (*Hover) Kind() StmtKind      { return StmtHover }
func (*Press) Kind() StmtKind      { return StmtPress }
func (*Select) Kind() StmtKind     { return StmtSelect }
func (*Upload) Kind() StmtKind     { return StmtUpload }
func (*Log) Kind() StmtKind        { return StmtLog }
func (*Screenshot) Kind() StmtKind { return StmtScreenshot }
func (*Scroll) Kind() StmtKind     { return StmtScroll }
func (*Download) Kind() StmtKind   { return StmtDownload }
func (*Cookie) Kind() StmtKind     { return StmtCookie }
func (*Storage) Kind() StmtKind    { return StmtStorage }
func (*Tab) Kind() StmtKind        { return StmtTab }
func (*Repeat) Kind() StmtKind     { return StmtRepeat }
func (*Let) Kind() StmtKind        { return StmtLet }
func (*Return) Kind() StmtKind     { return StmtReturn }
