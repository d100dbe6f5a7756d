package diag

import "fmt"

// Code identifies a class of diagnostic. Syntax problems are numbered
// 1xxx, semantic problems 2xxx.
type Code int

const (
	UnexpectedToken       Code = 1001
	UnknownKeyword        Code = 1002
	MissingBrace          Code = 1003
	MissingKeyword        Code = 1004
	IncompleteStatement   Code = 1005
	MissingWith           Code = 1006
	MissingFrom           Code = 1007
	MissingTimes          Code = 1008
	UnterminatedString    Code = 1009
	InvalidNumber         Code = 1010
	UnrecognizedCharacter Code = 1011
	ReservedIdentifier    Code = 1012

	UndefinedPage         Code = 2001
	UndefinedField        Code = 2002
	UndefinedAction       Code = 2003
	UndefinedVariable     Code = 2004
	DuplicateIdentifier   Code = 2005
	UndefinedPageActions  Code = 2006
	InvalidPageActionsFor Code = 2007
	InvalidTabContext     Code = 2008
	ArgumentCountMismatch Code = 2009
	InvalidReturn         Code = 2010
	TypeMismatch          Code = 2011
	PageNotUsed           Code = 2012
	EmptySelector         Code = 2013
	EmptyScenario         Code = 2014
	UnreachableStatement  Code = 2015
	ReservedName          Code = 2016
)

var codeNames = map[Code]string{
	UnexpectedToken:       "UNEXPECTED_TOKEN",
	UnknownKeyword:        "UNKNOWN_KEYWORD",
	MissingBrace:          "MISSING_BRACE",
	MissingKeyword:        "MISSING_KEYWORD",
	IncompleteStatement:   "INCOMPLETE_STATEMENT",
	MissingWith:           "MISSING_WITH",
	MissingFrom:           "MISSING_FROM",
	MissingTimes:          "MISSING_TIMES",
	UnterminatedString:    "UNTERMINATED_STRING",
	InvalidNumber:         "INVALID_NUMBER",
	UnrecognizedCharacter: "UNRECOGNIZED_CHARACTER",
	ReservedIdentifier:    "RESERVED_IDENTIFIER",

	UndefinedPage:         "UNDEFINED_PAGE",
	UndefinedField:        "UNDEFINED_FIELD",
	UndefinedAction:       "UNDEFINED_ACTION",
	UndefinedVariable:     "UNDEFINED_VARIABLE",
	DuplicateIdentifier:   "DUPLICATE_IDENTIFIER",
	UndefinedPageActions:  "UNDEFINED_PAGEACTIONS",
	InvalidPageActionsFor: "INVALID_PAGEACTIONS_FOR",
	InvalidTabContext:     "INVALID_TAB_CONTEXT",
	ArgumentCountMismatch: "ARGUMENT_COUNT_MISMATCH",
	InvalidReturn:         "INVALID_RETURN",
	TypeMismatch:          "TYPE_MISMATCH",
	PageNotUsed:           "PAGE_NOT_USED",
	EmptySelector:         "EMPTY_SELECTOR",
	EmptyScenario:         "EMPTY_SCENARIO",
	UnreachableStatement:  "UNREACHABLE_STATEMENT",
	ReservedName:          "RESERVED_NAME",
}

// String returns the symbolic name of the code, e.g. "UNDEFINED_PAGE".
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CODE_%d", int(c))
}

func (c Code) IsSyntax() bool   { return c >= 1000 && c < 2000 }
func (c Code) IsSemantic() bool { return c >= 2000 && c < 3000 }

// DefaultSeverity is the severity a diagnostic of this code carries unless
// the reporting context downgrades it.
func (c Code) DefaultSeverity() Severity {
	switch c {
	case PageNotUsed, EmptySelector:
		return SeverityWarning
	case EmptyScenario:
		return SeverityInfo
	case UnreachableStatement:
		return SeverityHint
	}
	return SeverityError
}
