package pricing

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrUnknownCommand is returned for command kinds Apply does not recognise.
	ErrUnknownCommand = errors.New("pricing: unknown command")
	// ErrUnknownField is returned when an edit names a field that cannot be edited.
	ErrUnknownField = errors.New("pricing: unknown field")
	// ErrSampleNotFound is returned when a command targets a missing sample.
	ErrSampleNotFound = errors.New("pricing: sample not found")
	// ErrLineNotFound is returned when a command targets a missing line item.
	ErrLineNotFound = errors.New("pricing: line item not found")
	// ErrMissingTemplate is returned when an add-group command carries no template.
	ErrMissingTemplate = errors.New("pricing: group template missing")
)

// CommandKind enumerates the document mutations understood by Apply.
type CommandKind string

const (
	CmdEditLine     CommandKind = "edit_line"
	CmdAddLine      CommandKind = "add_line"
	CmdRemoveLine   CommandKind = "remove_line"
	CmdAddSample    CommandKind = "add_sample"
	CmdRenameSample CommandKind = "rename_sample"
	CmdRemoveSample CommandKind = "remove_sample"
	CmdAddGroup     CommandKind = "add_group"
	CmdSetDiscount  CommandKind = "set_discount"
)

// Command is a single edit to a document. Only the fields relevant to Kind are read.
type Command struct {
	Kind     CommandKind
	SampleID string
	LineID   string
	Name     string
	Edit     Edit
	// Line is the line to insert for CmdAddLine; nil inserts a blank line.
	Line *LineItem
	// Template is expanded into the sample for CmdAddGroup.
	Template     *GroupTemplate
	DiscountRate float64
}

// Result describes what a command did.
type Result struct {
	SampleID   string
	LineID     string
	Resolution Resolution
}

// Env supplies the collaborators Apply needs to create new entities.
type Env struct {
	NewID           func() string
	BaselineTaxRate float64
}

func (e Env) id() string {
	if e.NewID == nil {
		return uuid.NewString()
	}
	return e.NewID()
}

// Apply executes cmd against doc and returns the updated document. doc itself is
// never modified. Every successful command marks the result as edited.
func Apply(doc Document, cmd Command, env Env) (Document, Result, error) {
	out := cloneDocument(doc)
	res := Result{SampleID: cmd.SampleID, LineID: cmd.LineID, Resolution: ResolvedForward}

	switch cmd.Kind {
	case CmdEditLine:
		if !Editable(cmd.Edit.Field) {
			return doc, res, fmt.Errorf("%w: %s", ErrUnknownField, cmd.Edit.Field)
		}
		si, li, err := locate(out, cmd.SampleID, cmd.LineID)
		if err != nil {
			return doc, res, err
		}
		out.Samples[si].Lines[li], res.Resolution = ApplyEdit(out.Samples[si].Lines[li], cmd.Edit)
	case CmdAddLine:
		si, err := locateSample(out, cmd.SampleID)
		if err != nil {
			return doc, res, err
		}
		var line LineItem
		if cmd.Line == nil {
			line = NewBlankLine(env.id(), env.BaselineTaxRate)
		} else {
			line = Recover(*cmd.Line)
			if line.ID == "" {
				line.ID = env.id()
			}
		}
		out.Samples[si].Lines = append(out.Samples[si].Lines, line)
		res.LineID = line.ID
	case CmdRemoveLine:
		si, li, err := locate(out, cmd.SampleID, cmd.LineID)
		if err != nil {
			return doc, res, err
		}
		lines := out.Samples[si].Lines
		out.Samples[si].Lines = append(lines[:li], lines[li+1:]...)
	case CmdAddSample:
		s := Sample{ID: env.id(), Name: cmd.Name, Lines: []LineItem{}}
		out.Samples = append(out.Samples, s)
		res.SampleID = s.ID
	case CmdRenameSample:
		si, err := locateSample(out, cmd.SampleID)
		if err != nil {
			return doc, res, err
		}
		out.Samples[si].Name = cmd.Name
	case CmdRemoveSample:
		si, err := locateSample(out, cmd.SampleID)
		if err != nil {
			return doc, res, err
		}
		out.Samples = append(out.Samples[:si], out.Samples[si+1:]...)
	case CmdAddGroup:
		si, err := locateSample(out, cmd.SampleID)
		if err != nil {
			return doc, res, err
		}
		if cmd.Template == nil {
			return doc, res, ErrMissingTemplate
		}
		out.Samples[si].Lines = append(out.Samples[si].Lines, ExpandGroup(*cmd.Template, env.id)...)
	case CmdSetDiscount:
		out.DiscountRate = num(cmd.DiscountRate)
	default:
		return doc, res, fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Kind)
	}

	out.Edited = true
	return out, res, nil
}

func locateSample(doc Document, sampleID string) (int, error) {
	for i, s := range doc.Samples {
		if s.ID == sampleID {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrSampleNotFound, sampleID)
}

func locate(doc Document, sampleID, lineID string) (int, int, error) {
	si, err := locateSample(doc, sampleID)
	if err != nil {
		return -1, -1, err
	}
	for i, it := range doc.Samples[si].Lines {
		if it.ID == lineID {
			return si, i, nil
		}
	}
	return -1, -1, fmt.Errorf("%w: %s", ErrLineNotFound, lineID)
}

// cloneDocument deep-copies the sample and line slices so edits on the copy
// never reach the caller's document.
func cloneDocument(doc Document) Document {
	out := doc
	out.Samples = make([]Sample, len(doc.Samples))
	for i, s := range doc.Samples {
		s.Lines = append([]LineItem(nil), s.Lines...)
		out.Samples[i] = s
	}
	if doc.Snapshot != nil {
		snap := *doc.Snapshot
		out.Snapshot = &snap
	}
	return out
}
