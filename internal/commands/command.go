package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sandeepkv93/taskly/internal/model"
)

type Type string

const (
	TypeAdd      Type = "add"
	TypeDone     Type = "done"
	TypeUndo     Type = "undo"
	TypeDelete   Type = "delete"
	TypeDue      Type = "due"
	TypeShow     Type = "show"
	TypeCategory Type = "category"
	TypeDaily    Type = "daily"
	TypeEdit     Type = "edit"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalid(format string, args ...any) *CommandError {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// AddArgs.Slot is the zero-based category slot, or -1 when none was given.
type AddArgs struct {
	Title string
	Slot  int
	Due   *When
	Notes string
}

// TargetArgs names a task by id or id prefix. An empty Target means the
// selected task.
type TargetArgs struct {
	Target string
}

type DueArgs struct {
	Target string
	When   When
}

type ShowArgs struct {
	Mode model.TemporalMode
}

type CategoryArgs struct {
	Slot   int
	Symbol string
}

type DailyArgs struct {
	Enabled bool
}

// EditArgs changes the title, notes or category of a task. Nil fields are
// left as they are; a non-nil empty Notes clears them. Slot is -1 when the
// category is unchanged.
type EditArgs struct {
	Target string
	Title  *string
	Notes  *string
	Slot   int
}

type Command struct {
	Type     Type
	Raw      string
	Add      *AddArgs
	Target   *TargetArgs
	Due      *DueArgs
	Show     *ShowArgs
	Category *CategoryArgs
	Daily    *DailyArgs
	Edit     *EditArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeDone, TypeUndo, TypeDelete:
		return parseTarget(input, Type(head), args)
	case TypeDue:
		return parseDue(input, args)
	case TypeShow:
		return parseShow(input, args)
	case TypeCategory:
		return parseCategory(input, args)
	case TypeDaily:
		return parseDaily(input, args)
	case TypeEdit:
		return parseEdit(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

// parseAdd reads `add <title> [#<slot>] [due:<when>] [notes:<text>]`.
// Options may appear anywhere after the command word, except notes which
// take the rest of the line; everything else forms the title.
func parseAdd(raw string, args []string) (Command, error) {
	out := AddArgs{Slot: -1}
	title := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case hasOption(arg, "notes:"):
			out.Notes = restOf(args[i:], "notes:")
			i = len(args)
		case isSlotToken(arg):
			slot, err := parseSlot(arg[1:])
			if err != nil {
				return Command{}, err
			}
			out.Slot = slot
		case hasOption(arg, "due:"):
			value := arg[len("due:"):]
			if i+1 < len(args) && looksLikeClock(args[i+1]) {
				value += " " + args[i+1]
				i++
			}
			when, err := ParseWhen(value)
			if err != nil {
				return Command{}, err
			}
			out.Due = &when
		default:
			title = append(title, arg)
		}
	}
	out.Title = strings.TrimSpace(strings.Join(title, " "))
	if out.Title == "" {
		return Command{}, invalid("add requires a title")
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &out}, nil
}

// parseEdit reads `edit [<id>] [title:<text>] [#<slot>] [notes:<text>]`.
// A title runs until the next option; notes take the rest of the line and
// an empty notes: clears them.
func parseEdit(raw string, args []string) (Command, error) {
	out := EditArgs{Slot: -1}
	i := 0
	if len(args) > 0 && !hasOption(args[0], "title:") && !hasOption(args[0], "notes:") && !isSlotToken(args[0]) {
		out.Target = args[0]
		i = 1
	}
	for i < len(args) {
		arg := args[i]
		switch {
		case hasOption(arg, "notes:"):
			notes := restOf(args[i:], "notes:")
			out.Notes = &notes
			i = len(args)
		case hasOption(arg, "title:"):
			words := []string{arg[len("title:"):]}
			i++
			for i < len(args) && !hasOption(args[i], "notes:") && !isSlotToken(args[i]) {
				words = append(words, args[i])
				i++
			}
			title := strings.TrimSpace(strings.Join(words, " "))
			if title == "" {
				return Command{}, invalid("edit title cannot be empty")
			}
			out.Title = &title
		case isSlotToken(arg):
			slot, err := parseSlot(arg[1:])
			if err != nil {
				return Command{}, err
			}
			out.Slot = slot
			i++
		default:
			return Command{}, invalid("unexpected %q; use title:, notes: or #<slot>", arg)
		}
	}
	if out.Title == nil && out.Notes == nil && out.Slot < 0 {
		return Command{}, invalid("edit requires title:, notes: or #<slot>")
	}
	return Command{Type: TypeEdit, Raw: raw, Edit: &out}, nil
}

func parseTarget(raw string, typ Type, args []string) (Command, error) {
	if len(args) > 1 {
		return Command{}, invalid("%s takes at most one task id", typ)
	}
	target := ""
	if len(args) == 1 {
		target = args[0]
	}
	return Command{Type: typ, Raw: raw, Target: &TargetArgs{Target: target}}, nil
}

// parseDue reads `due [<id>] <when|none>`. A leading argument that is not a
// time names the task.
func parseDue(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("due requires a time or none")
	}
	if when, err := ParseWhen(strings.Join(args, " ")); err == nil {
		return Command{Type: TypeDue, Raw: raw, Due: &DueArgs{When: when}}, nil
	}
	if len(args) < 2 {
		return Command{}, invalid("unrecognised time %q", args[0])
	}
	when, err := ParseWhen(strings.Join(args[1:], " "))
	if err != nil {
		return Command{}, err
	}
	return Command{Type: TypeDue, Raw: raw, Due: &DueArgs{Target: args[0], When: when}}, nil
}

func parseShow(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("show requires one of all, today, week, overdue")
	}
	mode := model.TemporalMode(strings.ToLower(args[0]))
	if !mode.IsValid() {
		return Command{}, invalid("unknown view %q", args[0])
	}
	return Command{Type: TypeShow, Raw: raw, Show: &ShowArgs{Mode: mode}}, nil
}

func parseCategory(raw string, args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, invalid("category requires a slot and a symbol")
	}
	slot, err := parseSlot(args[0])
	if err != nil {
		return Command{}, err
	}
	if err := model.ValidateSymbol(args[1]); err != nil {
		return Command{}, invalid("%v", err)
	}
	return Command{Type: TypeCategory, Raw: raw, Category: &CategoryArgs{Slot: slot, Symbol: args[1]}}, nil
}

func parseDaily(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("daily requires on or off")
	}
	switch strings.ToLower(args[0]) {
	case "on":
		return Command{Type: TypeDaily, Raw: raw, Daily: &DailyArgs{Enabled: true}}, nil
	case "off":
		return Command{Type: TypeDaily, Raw: raw, Daily: &DailyArgs{Enabled: false}}, nil
	default:
		return Command{}, invalid("daily requires on or off, got %q", args[0])
	}
}

// isSlotToken reports whether arg is #<digits...>; other #words belong to
// the title.
func isSlotToken(arg string) bool {
	return len(arg) > 1 && arg[0] == '#' && arg[1] >= '0' && arg[1] <= '9'
}

func hasOption(arg, name string) bool {
	return strings.HasPrefix(strings.ToLower(arg), name)
}

// restOf joins args after stripping the option name from the first one.
func restOf(args []string, name string) string {
	first := args[0][len(name):]
	return strings.TrimSpace(strings.Join(append([]string{first}, args[1:]...), " "))
}

// parseSlot converts a one-based slot as typed by the user to a zero-based
// index.
func parseSlot(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > model.CategoryCount {
		return 0, invalid("category slot must be 1-%d, got %q", model.CategoryCount, s)
	}
	return n - 1, nil
}
