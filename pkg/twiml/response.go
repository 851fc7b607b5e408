package twiml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// ContentType is the media type the voice platform expects for documents.
const ContentType = "text/xml"

// Header is written before the root element of every rendered document.
const Header = `<?xml version="1.0" encoding="UTF-8"?>`

var (
	// ErrInvalidPlay is returned when a Play has neither or both of URL and Digits.
	ErrInvalidPlay = errors.New("play requires exactly one of url or digits")
	// ErrInvalidGather is returned when a Gather has a negative digit count.
	ErrInvalidGather = errors.New("gather digit count must not be negative")
	// ErrInvalidDocument is returned by Parse for input that is not a Response document.
	ErrInvalidDocument = errors.New("not a response document")
)

// Response is the document produced by one turn of a dialog.
type Response struct {
	// DefaultLanguage is applied to every Say without its own language when rendering.
	DefaultLanguage string

	verbs []Verb
}

// New creates an empty Response with the given default language.
func New(defaultLanguage string) *Response {
	return &Response{DefaultLanguage: defaultLanguage}
}

// Verbs returns a copy of the verbs appended so far.
func (r *Response) Verbs() []Verb {
	out := make([]Verb, len(r.verbs))
	copy(out, r.verbs)
	return out
}

// Len returns the number of top-level verbs.
func (r *Response) Len() int {
	return len(r.verbs)
}

// Append adds pre-built verbs to the document.
func (r *Response) Append(verbs ...Verb) *Response {
	for _, v := range verbs {
		if g, ok := v.(Gather); ok {
			v = g.clone()
		}
		r.verbs = append(r.verbs, v)
	}
	return r
}

// Say appends spoken text in the default language.
func (r *Response) Say(text string) *Response {
	r.verbs = append(r.verbs, Say{Text: text})
	return r
}

// SayIn appends spoken text with an explicit language.
func (r *Response) SayIn(text, language string) *Response {
	r.verbs = append(r.verbs, Say{Text: text, Language: language})
	return r
}

// Play appends an audio resource.
func (r *Response) Play(url string) *Response {
	r.verbs = append(r.verbs, Play{URL: url})
	return r
}

// PlayDigits appends DTMF tones.
func (r *Response) PlayDigits(digits string) *Response {
	r.verbs = append(r.verbs, Play{Digits: digits})
	return r
}

// Pause appends a silence of the given number of seconds.
// A pause without a length is one second on the platform, so zero or fewer seconds appends nothing.
func (r *Response) Pause(seconds int) *Response {
	if seconds <= 0 {
		return r
	}
	r.verbs = append(r.verbs, Pause{Length: seconds})
	return r
}

// Hangup appends a hangup.
func (r *Response) Hangup() *Response {
	r.verbs = append(r.verbs, Hangup{})
	return r
}

// Gather appends a digit collection posting to action.
// build populates the gather's prompts and runs before the gather is appended,
// so the node is complete once it is part of the document.
func (r *Response) Gather(numDigits int, action string, build func(g *Gather)) *Response {
	g := &Gather{NumDigits: numDigits, Action: action}
	if build != nil {
		build(g)
	}
	r.verbs = append(r.verbs, g.clone())
	return r
}

func (g Gather) clone() Gather {
	if len(g.Children) == 0 {
		g.Children = nil
		return g
	}
	children := make([]Say, len(g.Children))
	copy(children, g.Children)
	g.Children = children
	return g
}

// Render serializes the document using DefaultLanguage for unqualified Say verbs.
func (r *Response) Render() ([]byte, error) {
	return r.RenderLanguage(r.DefaultLanguage)
}

// RenderLanguage serializes the document using language for unqualified Say verbs.
func (r *Response) RenderLanguage(language string) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := r.writeTo(&buf, language); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo renders the document into w.
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	return r.writeTo(w, r.DefaultLanguage)
}

// String renders the document, returning an empty string if it is invalid.
func (r *Response) String() string {
	doc, err := r.Render()
	if err != nil {
		return ""
	}
	return string(doc)
}

func (r *Response) writeTo(w io.Writer, language string) (int64, error) {
	elements := make([]any, 0, len(r.verbs))
	for i, v := range r.verbs {
		el, err := toElement(v, language)
		if err != nil {
			return 0, fmt.Errorf("verb %d: %w", i, err)
		}
		elements = append(elements, el)
	}

	var buf bytes.Buffer
	buf.WriteString(Header)

	enc := xml.NewEncoder(&buf)
	root := xml.StartElement{Name: xml.Name{Local: "Response"}}
	if err := enc.EncodeToken(root); err != nil {
		return 0, err
	}
	for _, el := range elements {
		if err := enc.Encode(el); err != nil {
			return 0, fmt.Errorf("failed to encode verb: %w", err)
		}
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return 0, err
	}
	if err := enc.Flush(); err != nil {
		return 0, err
	}

	return buf.WriteTo(w)
}

type sayElement struct {
	XMLName  xml.Name `xml:"Say"`
	Language string   `xml:"language,attr,omitempty"`
	Text     string   `xml:",chardata"`
}

type playElement struct {
	XMLName xml.Name `xml:"Play"`
	Digits  string   `xml:"digits,attr,omitempty"`
	URL     string   `xml:",chardata"`
}

type pauseElement struct {
	XMLName xml.Name `xml:"Pause"`
	Length  int      `xml:"length,attr,omitempty"`
}

type hangupElement struct {
	XMLName xml.Name `xml:"Hangup"`
}

type gatherElement struct {
	XMLName   xml.Name     `xml:"Gather"`
	Action    string       `xml:"action,attr,omitempty"`
	NumDigits int          `xml:"numDigits,attr,omitempty"`
	Says      []sayElement `xml:"Say"`
}

func sayToElement(s Say, language string) sayElement {
	lang := s.Language
	if lang == "" {
		lang = language
	}
	return sayElement{Language: lang, Text: s.Text}
}

func toElement(v Verb, language string) (any, error) {
	switch v := v.(type) {
	case Say:
		return sayToElement(v, language), nil
	case Play:
		if (v.URL == "") == (v.Digits == "") {
			return nil, ErrInvalidPlay
		}
		return playElement{URL: v.URL, Digits: v.Digits}, nil
	case Pause:
		return pauseElement{Length: v.Length}, nil
	case Hangup:
		return hangupElement{}, nil
	case Gather:
		if v.NumDigits < 0 {
			return nil, ErrInvalidGather
		}
		el := gatherElement{Action: v.Action, NumDigits: v.NumDigits}
		for _, s := range v.Children {
			el.Says = append(el.Says, sayToElement(s, language))
		}
		return el, nil
	default:
		return nil, fmt.Errorf("unsupported verb %T", v)
	}
}

// Parse decodes a rendered document back into its verbs.
// Say languages are returned as rendered, so defaults appear explicitly.
func Parse(data []byte) ([]Verb, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var root *xml.StartElement
	for root == nil {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			if se.Name.Local != "Response" {
				return nil, fmt.Errorf("%w: root element %q", ErrInvalidDocument, se.Name.Local)
			}
			root = &se
		}
	}

	verbs := []Verb{}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		switch t := tok.(type) {
		case xml.EndElement:
			return verbs, nil
		case xml.StartElement:
			v, err := decodeVerb(dec, t)
			if err != nil {
				return nil, err
			}
			verbs = append(verbs, v)
		}
	}
}

func decodeVerb(dec *xml.Decoder, start xml.StartElement) (Verb, error) {
	switch start.Name.Local {
	case "Say":
		var el sayElement
		if err := dec.DecodeElement(&el, &start); err != nil {
			return nil, err
		}
		return Say{Text: el.Text, Language: el.Language}, nil
	case "Play":
		var el playElement
		if err := dec.DecodeElement(&el, &start); err != nil {
			return nil, err
		}
		return Play{URL: el.URL, Digits: el.Digits}, nil
	case "Pause":
		var el pauseElement
		if err := dec.DecodeElement(&el, &start); err != nil {
			return nil, err
		}
		return Pause{Length: el.Length}, nil
	case "Hangup":
		if err := dec.Skip(); err != nil {
			return nil, err
		}
		return Hangup{}, nil
	case "Gather":
		var el gatherElement
		if err := dec.DecodeElement(&el, &start); err != nil {
			return nil, err
		}
		g := Gather{Action: el.Action, NumDigits: el.NumDigits}
		for _, s := range el.Says {
			g.Children = append(g.Children, Say{Text: s.Text, Language: s.Language})
		}
		return g, nil
	default:
		return nil, fmt.Errorf("%w: unknown verb %q", ErrInvalidDocument, start.Name.Local)
	}
}
