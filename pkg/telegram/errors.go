package telegram

import "fmt"

// Error is a Bot API failure carrying the platform's numeric code and
// description. The pump treats every Error as transient.
type Error struct {
	Code        int
	Description string
}

func (e *Error) Error() string {
	return fmt.Sprintf("telegram api error %d: %s", e.Code, e.Description)
}
