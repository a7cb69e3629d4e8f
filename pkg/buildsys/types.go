package buildsys

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.starlark.net/starlark"
	starsyntax "go.starlark.net/syntax"
	"mvdan.cc/sh/v3/syntax"
)

// ScriptCmd is a task command that holds a piece of shell script.
type ScriptCmd struct {
	TaskName string
	Content  string
	Index    int
}

func (s ScriptCmd) ToTask() (*Task, error) {
	return nil, nil
}

func (s ScriptCmd) ToShellStmts(parser *syntax.Parser) ([]*syntax.Stmt, error) {
	reader := strings.NewReader(s.Content)
	result, err := parser.Parse(reader, fmt.Sprintf("%s:%d", s.TaskName, s.Index))
	if err != nil {
		return nil, eris.Wrapf(err, "failed to parse command %s", s.Content)
	}

	return result.Stmts, nil
}

// TaskRef is a task command that runs another task.
type TaskRef struct {
	Task *Task
}

func (t TaskRef) ToTask() (*Task, error) {
	return t.Task, nil
}

func (t TaskRef) ToShellStmts(*syntax.Parser) ([]*syntax.Stmt, error) {
	return nil, nil
}

type TaskCmd interface {
	ToTask() (*Task, error)
	ToShellStmts(*syntax.Parser) ([]*syntax.Stmt, error)
}

// Command builds a ScriptCmd from an argument vector. Each argument is quoted
// for the shell runtime, so the resulting command runs exactly the passed
// arguments regardless of spaces or other special characters.
func Command(argv ...string) (ScriptCmd, error) {
	quoted := make([]string, len(argv))
	for idx, arg := range argv {
		q, err := syntax.Quote(arg, syntax.LangPOSIX)
		if err != nil {
			return ScriptCmd{}, eris.Wrapf(err, "failed to quote argument %q", arg)
		}
		quoted[idx] = q
	}

	return ScriptCmd{Content: strings.Join(quoted, " ")}, nil
}

// Task contains the processed values passed to task() by the task script or
// constructed by the packaging pipelines
type Task struct {
	Env          map[string]string
	Short        string
	Desc         string
	Base         string
	Inputs       []string
	Deps         []string
	SkipIfExists []string
	Outputs      []string
	Cmds         []TaskCmd
	Hidden       bool
}

// TaskList maps short names to each relevant task
type TaskList map[string]*Task

type ScriptOption struct {
	DefaultValue starlark.String
	Help         string
}

func (o ScriptOption) Default() string {
	return o.DefaultValue.GoString()
}

// Implement starlark.Value for *Task

// String returns a string representation of the task
func (t *Task) String() string {
	return fmt.Sprintf("<Task %s: %s>", t.Short, t.Desc)
}

// Type always returns "task" to indicate this type
func (t *Task) Type() string {
	return "task"
}

// Freeze doesn't do anything since tasks are immutable anyway
func (t *Task) Freeze() {}

// Truth always returns true since a task can't be nil or None
func (t *Task) Truth() starlark.Bool {
	return starlark.True
}

// Hash always returns an error since task is not hashable
func (t *Task) Hash() (uint32, error) {
	return 0, eris.New("task is not a hashable type")
}

// Path is a filesystem path value exposed to Starlark scripts.
type Path string

func (p Path) String() string {
	return starlark.String(p).String()
}

func (p Path) Type() string {
	return "path"
}

func (p Path) Freeze() {}

func (p Path) Truth() starlark.Bool {
	return p != ""
}

func (p Path) Hash() (uint32, error) {
	return starlark.String(p).Hash()
}

func (p Path) CompareSameType(op starsyntax.Token, y_ starlark.Value, depth int) (bool, error) {
	y := y_.(Path)

	switch op {
	case starsyntax.EQL:
		return p == y, nil
	case starsyntax.NEQ:
		return p != y, nil
	case starsyntax.LT:
		return p < y, nil
	case starsyntax.LE:
		return p <= y, nil
	case starsyntax.GT:
		return p > y, nil
	case starsyntax.GE:
		return p >= y, nil
	}

	return false, eris.Errorf("unknown operator %v", op)
}

func (p Path) Index(i int) starlark.Value {
	return starlark.String(p[i])
}

func (p Path) Len() int {
	return len(p)
}

func (p Path) Slice(start, end, step int) starlark.Value {
	return starlark.String(p).Slice(start, end, step)
}
