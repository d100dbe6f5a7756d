package parser

// Pos locates a node: 1-based line, 0-based rune columns, End exclusive.
// It is embedded in every node so Position() and Line are promoted.
type Pos struct {
	Line int
	Col  int
	End  int
}

func (p Pos) Position() Pos { return p }

// Program is one compilation unit. Scenario and statement order inside a
// feature is execution order; page order carries no meaning.
type Program struct {
	Pages       []*Page
	PageActions []*PageActions
	Features    []*Feature
}

type Page struct {
	Pos
	Name      string
	Fields    []*Field
	Variables []*Variable
	Actions   []*ActionDef
}

// Field is a named locator. Selector is the literal as written; its
// strategy is inferred during validation.
type Field struct {
	Pos
	Name     string
	Selector string
}

type VarType int

const (
	TypeNone VarType = iota
	TypeText
	TypeNumber
	TypeFlag
	TypeList
)

func (t VarType) String() string {
	switch t {
	case TypeText:
		return "TEXT"
	case TypeNumber:
		return "NUMBER"
	case TypeFlag:
		return "FLAG"
	case TypeList:
		return "LIST"
	}
	return "NONE"
}

type Variable struct {
	Pos
	Type  VarType
	Name  string
	Value Expr
}

type Param struct {
	Pos
	Name string
}

// ActionDef is a reusable statement sequence on a page or page-action group.
type ActionDef struct {
	Pos
	Name    string
	Params  []Param
	Returns VarType
	Body    []Statement
}

// PageActions groups actions that operate on the page named by For.
type PageActions struct {
	Pos
	Name    string
	For     string
	ForPos  Pos
	Actions []*ActionDef
}

type Use struct {
	Pos
	Name string
}

type Feature struct {
	Pos
	Name      string
	Uses      []Use
	Hooks     []*Hook
	Scenarios []*Scenario
}

type HookKind int

const (
	BeforeAll HookKind = iota
	BeforeEach
	AfterAll
	AfterEach
)

func (k HookKind) String() string {
	switch k {
	case BeforeAll:
		return "BEFORE ALL"
	case BeforeEach:
		return "BEFORE EACH"
	case AfterAll:
		return "AFTER ALL"
	}
	return "AFTER EACH"
}

// IsAll reports whether the hook runs once per feature rather than per scenario.
func (k HookKind) IsAll() bool { return k == BeforeAll || k == AfterAll }

type Hook struct {
	Pos
	Kind HookKind
	Body []Statement
}

type Scenario struct {
	Pos
	Name string
	Tags []string
	Body []Statement
}

// Target names an element: Page.field, a bare field resolved by context,
// or a literal text match when Literal is set.
type Target struct {
	Pos
	Page    string
	Name    string
	Text    string
	Literal bool
}

// Call invokes a page or page-action-group action.
type Call struct {
	Pos
	Page   string
	Action string
	Args   []Expr
}
