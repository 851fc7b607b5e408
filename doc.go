/*
Package menusystem is an automated telephone dialog server.

A caller interacts with spoken prompts and keypad digits. Every callback from the voice platform
lands on the endpoint of one dialog state; the state machine reads the continuation carried in the
query string, decides what to say or play, and answers with a TwiML document whose gather action
routes the next keypress.

Two flows are served:

  - /location guides a caller from a public payphone to a fixed destination. The caller keys in
    the payphone's identifier, picks one of the matching payphones, and chooses walking or public
    transport instructions, which can be repeated.
  - /message plays recorded messages to a registered caller after a numeric passcode.

# Usage

	cfg, err := config.Load("", os.Environ())
	if err != nil {
		log.Fatal(err)
	}
	app, err := menusystem.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	log.Fatal(http.ListenAndServe(cfg.Listen, app.Handler()))

Collaborators can be replaced with WithLocator, WithDirections and WithCache, which is how the
tests run the full HTTP surface without network access.
*/
package menusystem
