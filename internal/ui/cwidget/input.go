package cwidget

import (
	"fmt"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// Input is a labelled entry that only reports values its Validator accepts.
// Rejected text leaves the last good value in place and shows the error
// underneath.
type Input[T any] struct {
	widget.BaseWidget

	labelWidget *widget.Label
	entryWidget *widget.Entry
	errorWidget *widget.Label

	LabelText   string
	Placeholder string

	Value T

	OnChanged func(T)

	Validator func(string) (T, error)
	Format    func(T) string
}

func newInput[T any](label, placeholder string, value T, format func(T) string) *Input[T] {
	input := &Input[T]{
		LabelText:   label,
		Placeholder: placeholder,
		Value:       value,
		Format:      format,
	}

	input.labelWidget = widget.NewLabel(input.title())
	input.labelWidget.TextStyle = fyne.TextStyle{Bold: true}

	input.entryWidget = widget.NewEntry()
	input.entryWidget.SetPlaceHolder(placeholder)

	input.errorWidget = widget.NewLabel("")
	input.errorWidget.Hidden = true
	input.errorWidget.TextStyle = fyne.TextStyle{Italic: true}
	input.errorWidget.Importance = widget.DangerImportance

	input.entryWidget.OnChanged = input.apply

	input.ExtendBaseWidget(input)

	return input
}

// NewIntInput accepts integers of at least minValue. Empty text falls back to the
// starting value.
func NewIntInput(label, placeholder string, value, minValue int, onChanged func(int)) *Input[int] {
	input := newInput(label, placeholder, value, strconv.Itoa)
	input.OnChanged = onChanged

	input.Validator = func(s string) (int, error) {
		if s == "" {
			return value, nil
		}

		res, err := strconv.Atoi(s)
		if err != nil {
			return input.Value, fmt.Errorf("%q is not a whole number", s)
		}
		if res < minValue {
			return input.Value, fmt.Errorf("must be at least %d", minValue)
		}
		return res, nil
	}

	return input
}

// NewTextInput shows the current text in the entry itself; validate may be nil.
func NewTextInput(label, placeholder, value string, validate func(string) error, onChanged func(string)) *Input[string] {
	input := newInput(label, placeholder, value, nil)
	input.OnChanged = onChanged

	input.Validator = func(s string) (string, error) {
		if validate != nil {
			if err := validate(s); err != nil {
				return input.Value, err
			}
		}
		return s, nil
	}

	// Set directly so construction does not fire OnChanged.
	input.entryWidget.Text = value

	return input
}

func (item *Input[T]) CreateRenderer() fyne.WidgetRenderer {
	c := container.NewVBox(
		item.labelWidget,
		item.entryWidget,
		item.errorWidget,
	)

	return widget.NewSimpleRenderer(c)
}

func (item *Input[T]) apply(s string) {
	res, err := item.Validator(s)
	item.SetError(err)
	if err != nil {
		return
	}

	item.Value = res
	item.labelWidget.SetText(item.title())
	if item.OnChanged != nil {
		item.OnChanged(res)
	}
}

func (item *Input[T]) title() string {
	if item.Format == nil {
		return item.LabelText
	}
	return fmt.Sprintf("%s: %s", item.LabelText, item.Format(item.Value))
}

func (item *Input[T]) SetError(err error) {
	item.errorWidget.Hidden = err == nil
	if err != nil {
		item.errorWidget.SetText(err.Error())
	}
	item.errorWidget.Refresh()
}

// ErrorText is the message currently shown, empty when the input is valid.
func (item *Input[T]) ErrorText() string {
	if item.errorWidget.Hidden {
		return ""
	}
	return item.errorWidget.Text
}

func (item *Input[T]) SetText(text string) {
	item.entryWidget.SetText(text)
}
