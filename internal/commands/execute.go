package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Add      func(AddArgs) (Result, error)
	Done     func(TargetArgs) (Result, error)
	Undo     func(TargetArgs) (Result, error)
	Delete   func(TargetArgs) (Result, error)
	Due      func(DueArgs) (Result, error)
	Show     func(ShowArgs) (Result, error)
	Category func(CategoryArgs) (Result, error)
	Daily    func(DailyArgs) (Result, error)
	Edit     func(EditArgs) (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeAdd:
		if handlers.Add == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Add(*cmd.Add)
	case TypeDone:
		if handlers.Done == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Done(*cmd.Target)
	case TypeUndo:
		if handlers.Undo == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Undo(*cmd.Target)
	case TypeDelete:
		if handlers.Delete == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Delete(*cmd.Target)
	case TypeDue:
		if handlers.Due == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Due(*cmd.Due)
	case TypeShow:
		if handlers.Show == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Show(*cmd.Show)
	case TypeCategory:
		if handlers.Category == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Category(*cmd.Category)
	case TypeDaily:
		if handlers.Daily == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Daily(*cmd.Daily)
	case TypeEdit:
		if handlers.Edit == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Edit(*cmd.Edit)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}

func missing(t Type) *CommandError {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", t)}
}
