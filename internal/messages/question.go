package messages

// Button is a single action offered with a Question.
type Button struct {
	Name       string
	Text       string
	ImageURL   string
	Value      string
	Additional map[string]any
}

// NewButton creates a button whose name and value default to its text.
func NewButton(text string) Button {
	return Button{Name: text, Text: text, Value: text}
}

// WithValue returns a copy of the button with a different value.
func (b Button) WithValue(value string) Button {
	b.Value = value
	return b
}

// WithImageURL returns a copy of the button with an image.
func (b Button) WithImageURL(url string) Button {
	b.ImageURL = url
	return b
}

func (b Button) toMap() map[string]any {
	additional := b.Additional
	if additional == nil {
		additional = map[string]any{}
	}
	return map[string]any{
		"name":       b.Name,
		"text":       b.Text,
		"image_url":  b.ImageURL,
		"type":       "button",
		"value":      b.Value,
		"additional": additional,
	}
}

// Question asks the user to pick one of a set of buttons.
type Question struct {
	Text       string
	Fallback   string
	CallbackID string
	Buttons    []Button
}

// NewQuestion creates a question with no buttons.
func NewQuestion(text string) *Question {
	return &Question{Text: text}
}

// AddButtons appends buttons and returns the question for chaining.
func (q *Question) AddButtons(buttons ...Button) *Question {
	q.Buttons = append(q.Buttons, buttons...)
	return q
}

// ToWebDriver renders the question as an "actions" reply.
func (q *Question) ToWebDriver() map[string]any {
	actions := make([]map[string]any, 0, len(q.Buttons))
	for _, b := range q.Buttons {
		actions = append(actions, b.toMap())
	}
	return map[string]any{
		"type":        "actions",
		"text":        q.Text,
		"fallback":    q.Fallback,
		"callback_id": q.CallbackID,
		"actions":     actions,
	}
}
