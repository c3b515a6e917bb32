package jokeapi

import "encoding/json"

// Fallback is shown whenever a joke could not be fetched or understood.
const Fallback = "Hmmm I don't know what happened... Please try again."

type Type string

const (
	TypeSingle  Type = "single"
	TypeTwoPart Type = "twopart"
)

// Joke is a JokeAPI response. Only Type and the text fields drive rendering.
type Joke struct {
	Type     Type   `json:"type"`
	Category string `json:"category"`
	Joke     string `json:"joke"`
	Setup    string `json:"setup"`
	Delivery string `json:"delivery"`
	ID       int    `json:"id"`
	Safe     bool   `json:"safe"`
	Lang     string `json:"lang"`

	// set on API errors such as an unknown category
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// Text renders the joke for display. It never returns an empty string for
// an unrecognized shape; those render as Fallback.
func (j Joke) Text() string {
	switch j.Type {
	case TypeSingle:
		return j.Joke
	case TypeTwoPart:
		return j.Setup + " " + j.Delivery
	default:
		return Fallback
	}
}

// Decode parses a JokeAPI response body.
func Decode(body []byte) (Joke, error) {
	var j Joke
	if err := json.Unmarshal(body, &j); err != nil {
		return Joke{}, err
	}
	return j, nil
}
