/*
Package twiml builds the call-control documents returned to the voice platform on every turn.

A Response is an ordered list of verbs. Verbs form a closed set (Say, Play, Pause, Hangup and
Gather) and are rendered in exactly the order they were appended.

# Usage

	res := twiml.New("en-AU")
	res.Say("Payphone found in Wilton").
		Gather(1, "/location/mode?origin=-34.2%2C150.7&v=1", func(g *twiml.Gather) {
			g.Say("Please enter, 1 for walking instructions, or 2 for public transportation instructions")
		}).
		Hangup()

	doc, err := res.Render()

The language of a Say without an explicit language is resolved when the document is rendered,
not when the verb is appended.
*/
package twiml
