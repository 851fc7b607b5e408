package twiml

// Verb is a single directive in a Response.
// The set of verbs is closed; only the types in this package implement it.
type Verb interface {
	verb()
}

// Say speaks Text. An empty Language is replaced by the document default at render time.
type Say struct {
	Text     string
	Language string
}

// Play plays an audio resource at URL, or the DTMF tones in Digits.
// Exactly one of the two must be set.
type Play struct {
	URL    string
	Digits string
}

// Pause waits silently for Length seconds.
type Pause struct {
	Length int
}

// Hangup terminates the call. Verbs after it never take effect.
type Hangup struct{}

// Gather collects up to NumDigits keypresses while speaking its children,
// then posts them to Action. If the caller does not respond, the platform
// continues with the verbs following the Gather.
type Gather struct {
	NumDigits int
	Action    string
	Children  []Say
}

func (Say) verb()    {}
func (Play) verb()   {}
func (Pause) verb()  {}
func (Hangup) verb() {}
func (Gather) verb() {}

// Say appends a spoken prompt to the gather.
func (g *Gather) Say(text string) *Gather {
	g.Children = append(g.Children, Say{Text: text})
	return g
}

// SayIn appends a spoken prompt with an explicit language.
func (g *Gather) SayIn(text, language string) *Gather {
	g.Children = append(g.Children, Say{Text: text, Language: language})
	return g
}
