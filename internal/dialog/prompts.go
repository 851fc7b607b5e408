package dialog

// Spoken prompts. Numbers are spoken by the platform's speech engine.
const (
	promptIdentifier     = "Please enter the %d digit payphone identification number"
	promptFound          = "Payphone found in %s"
	promptFoundMany      = "Found %d payphones"
	promptFoundFirst     = "Found %d payphones, the first %d follow"
	promptChoice         = "Press %d for %s"
	promptMode           = "Please enter, 1 for walking instructions, or 2 for public transportation instructions"
	promptEndOfSteps     = "End of instructions"
	promptRepeat         = "Enter 1 to repeat instructions, or hang up."
	promptPasscode       = "Please enter your %d digit pin, followed by the hash key"
	promptEntered        = "You entered %s"
	promptHello          = "Hello, %s"
	promptRetrieving     = "Please wait while your message is retrieved"
	promptMessageFollows = "Message follows"
	promptEndOfMessage   = "End of message."
	promptClosing        = "Thank you for using the voice message service. Have a nice day!"

	sayNoInput          = "No input received. Goodbye!"
	sayInvalidID        = "Invalid payphone identification number"
	sayNotFound         = "Payphone could not be found"
	sayInvalidSelection = "Invalid selection"
	sayInvalidInput     = "Invalid input"
	sayNoRoute          = "No route found"
	sayFarewell         = "Goodbye!"
	sayIncorrect        = "Incorrect pin"
	sayNotRegistered    = "This number is not registered. Goodbye!"
	sayApology          = "Sorry, something went wrong. Goodbye."

	transitStep    = "Take the %s towards %s from %s"
	transitAt      = " at %s"
	transitArrival = ". Get off at %s"
	transitStops   = " after %d %s"
)
