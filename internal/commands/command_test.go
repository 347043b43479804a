package commands

import (
	"errors"
	"testing"
	"time"

	"github.com/sandeepkv93/taskly/internal/model"
)

func TestParseSupportedCommands(t *testing.T) {
	cases := []struct {
		in       string
		typeWant Type
	}{
		{"/add pay rent", TypeAdd},
		{"done", TypeDone},
		{"undo 3f2a", TypeUndo},
		{"delete", TypeDelete},
		{"due +2h", TypeDue},
		{"show overdue", TypeShow},
		{"category 2 📚", TypeCategory},
		{"DAILY on", TypeDaily},
		{"edit title:new name", TypeEdit},
	}

	for _, tc := range cases {
		cmd, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.in, err)
		}
		if cmd.Type != tc.typeWant {
			t.Fatalf("parse %q type = %s, want %s", tc.in, cmd.Type, tc.typeWant)
		}
	}
}

func TestParseAddOptions(t *testing.T) {
	cmd, err := Parse("add call the bank #2 due:2026-02-12 09:30")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	a := cmd.Add
	if a.Title != "call the bank" || a.Slot != 1 {
		t.Fatalf("unexpected add args: %+v", a)
	}
	if a.Due == nil || !a.Due.Local {
		t.Fatalf("expected local due time, got %+v", a.Due)
	}
	got := a.Due.Resolve(time.Time{}, time.UTC)
	want := time.Date(2026, 2, 12, 9, 30, 0, 0, time.UTC)
	if got == nil || !got.Equal(want) {
		t.Fatalf("resolved due = %v, want %v", got, want)
	}

	plain, err := Parse("add water plants")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if plain.Add.Slot != -1 || plain.Add.Due != nil {
		t.Fatalf("expected no options, got %+v", plain.Add)
	}
}

func TestParseRejectsBadArguments(t *testing.T) {
	for _, in := range []string{
		"add",
		"add #2",
		"add x #9",
		"add x due:tomorrowish",
		"due",
		"due soon",
		"show later",
		"category 0 📚",
		"category 1 ab",
		"daily maybe",
		"done a b",
		"edit",
		"edit 3f2a",
		"edit 3f2a title:",
		"edit 3f2a rename",
		"edit #0",
	} {
		_, err := Parse(in)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeInvalidArgument {
			t.Fatalf("parse %q: expected invalid argument, got %v", in, err)
		}
	}
}

func TestParseEmptyInput(t *testing.T) {
	for _, in := range []string{"", "  ", "/"} {
		_, err := Parse(in)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeEmptyInput {
			t.Fatalf("parse %q: expected empty input, got %v", in, err)
		}
	}
}

func TestParseDueTargets(t *testing.T) {
	cmd, err := Parse("due 3f2a none")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Due.Target != "3f2a" || !cmd.Due.When.Clear {
		t.Fatalf("unexpected due args: %+v", cmd.Due)
	}

	cmd, err = Parse("due 2026-02-12T18:00:00Z")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Due.Target != "" || cmd.Due.When.Local {
		t.Fatalf("unexpected due args: %+v", cmd.Due)
	}
}

func TestParseShowAndCategory(t *testing.T) {
	cmd, err := Parse("show Week")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Show.Mode != model.TemporalWeek {
		t.Fatalf("unexpected mode: %s", cmd.Show.Mode)
	}

	cmd, err = Parse("category 4 🎸")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Category.Slot != 3 || cmd.Category.Symbol != "🎸" {
		t.Fatalf("unexpected category args: %+v", cmd.Category)
	}
}

func TestWhenResolve(t *testing.T) {
	now := time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC)

	rel, err := ParseWhen("+90m")
	if err != nil {
		t.Fatalf("parse relative: %v", err)
	}
	if got := rel.Resolve(now, time.UTC); !got.Equal(now.Add(90 * time.Minute)) {
		t.Fatalf("relative resolve = %v", got)
	}

	none, err := ParseWhen("None")
	if err != nil {
		t.Fatalf("parse none: %v", err)
	}
	if none.Resolve(now, time.UTC) != nil {
		t.Fatal("none should resolve to nil")
	}

	if _, err := ParseWhen("+-5m"); err == nil {
		t.Fatal("expected negative duration to be rejected")
	}

	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	local, err := ParseWhen("2026-02-12T09:00")
	if err != nil {
		t.Fatalf("parse local: %v", err)
	}
	got := local.Resolve(now, ny)
	if got.Location() != ny || got.Hour() != 9 {
		t.Fatalf("local resolve = %v", got)
	}
}

func TestParseUnknownCommand(t *testing.T) {
	_, err := Parse("/unknown do x")
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeUnknownCommand {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestExecuteDispatch(t *testing.T) {
	cmd, err := Parse("/add write docs")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	called := false
	res, err := Execute(cmd, Handlers{
		Add: func(a AddArgs) (Result, error) {
			called = true
			if a.Title != "write docs" {
				t.Fatalf("unexpected title: %q", a.Title)
			}
			return Result{Message: "ok"}, nil
		},
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !called || res.Message != "ok" {
		t.Fatalf("dispatch failed, called=%v res=%+v", called, res)
	}
}

func TestExecuteMissingHandler(t *testing.T) {
	cmd, err := Parse("show today")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	_, err = Execute(cmd, Handlers{})
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeHandlerMissing {
		t.Fatalf("expected missing handler error, got %v", err)
	}
}

func TestParseAddHashWordsStayInTitle(t *testing.T) {
	cmd, err := Parse("add fix #bug in parser #3")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Add.Title != "fix #bug in parser" || cmd.Add.Slot != 2 {
		t.Fatalf("unexpected add args: %+v", cmd.Add)
	}
}

func TestParseAddNotesTakeRestOfLine(t *testing.T) {
	cmd, err := Parse("add renew passport #3 due:+48h notes: bring two photos #1 and the old one")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	a := cmd.Add
	if a.Title != "renew passport" || a.Slot != 2 || a.Due == nil {
		t.Fatalf("unexpected add args: %+v", a)
	}
	if a.Notes != "bring two photos #1 and the old one" {
		t.Fatalf("notes = %q", a.Notes)
	}
}

func TestParseEdit(t *testing.T) {
	cmd, err := Parse("edit 3f2a title:call the bank again #2 notes: ask about fees")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	e := cmd.Edit
	if e.Target != "3f2a" || e.Slot != 1 {
		t.Fatalf("unexpected edit args: %+v", e)
	}
	if e.Title == nil || *e.Title != "call the bank again" {
		t.Fatalf("title = %v", e.Title)
	}
	if e.Notes == nil || *e.Notes != "ask about fees" {
		t.Fatalf("notes = %v", e.Notes)
	}

	clear, err := Parse("edit notes:")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if clear.Edit.Target != "" || clear.Edit.Notes == nil || *clear.Edit.Notes != "" || clear.Edit.Title != nil || clear.Edit.Slot != -1 {
		t.Fatalf("unexpected clear-notes args: %+v", clear.Edit)
	}

	recat, err := Parse("edit #4")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if recat.Edit.Slot != 3 || recat.Edit.Target != "" {
		t.Fatalf("unexpected slot-only args: %+v", recat.Edit)
	}
}
