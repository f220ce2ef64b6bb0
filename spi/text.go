package spi

import "context"

// Text is the read-only text facet.
type Text struct {
	*Object
}

func asText(o *Object) *Text {
	if o == nil {
		return nil
	}
	return &Text{o}
}

// Handle returns the underlying handle, nil for a nil Text.
func (t *Text) Handle() *Object {
	if t == nil {
		return nil
	}
	return t.Object
}

// CharacterCount returns the text length, or -1.
func (t *Text) CharacterCount(ctx context.Context) int {
	return t.Handle().getInt(ctx, "_get_characterCount")
}

// Text returns the characters in [start, end). An end of -1 means the end of text.
func (t *Text) Text(ctx context.Context, start, end int) string {
	return t.Handle().getString(ctx, "getText", int32(start), int32(end))
}

// CaretOffset returns the caret position, or -1.
func (t *Text) CaretOffset(ctx context.Context) int {
	return t.Handle().getInt(ctx, "_get_caretOffset")
}

// EditableText is the Text facet of elements whose text can be changed.
type EditableText struct {
	*Object
}

func asEditableText(o *Object) *EditableText {
	if o == nil {
		return nil
	}
	return &EditableText{o}
}

// Handle returns the underlying handle, nil for a nil EditableText.
func (t *EditableText) Handle() *Object {
	if t == nil {
		return nil
	}
	return t.Object
}

func (t *EditableText) text() *Text {
	return asText(t.Handle())
}

// CharacterCount returns the text length, or -1.
func (t *EditableText) CharacterCount(ctx context.Context) int {
	return t.text().CharacterCount(ctx)
}

// Text returns the characters in [start, end). An end of -1 means the end of text.
func (t *EditableText) Text(ctx context.Context, start, end int) string {
	return t.text().Text(ctx, start, end)
}

// CaretOffset returns the caret position, or -1.
func (t *EditableText) CaretOffset(ctx context.Context) int {
	return t.text().CaretOffset(ctx)
}

// SetTextContents replaces the whole text.
func (t *EditableText) SetTextContents(ctx context.Context, text string) bool {
	return t.Handle().getBool(ctx, "setTextContents", text)
}

// InsertText inserts text at position.
func (t *EditableText) InsertText(ctx context.Context, position int, text string) bool {
	return t.Handle().getBool(ctx, "insertText", int32(position), text, int32(len([]rune(text))))
}

// DeleteText removes the characters in [start, end).
func (t *EditableText) DeleteText(ctx context.Context, start, end int) bool {
	return t.Handle().getBool(ctx, "deleteText", int32(start), int32(end))
}
