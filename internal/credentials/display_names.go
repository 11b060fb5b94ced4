// Package credentials generates friendly defaults for new players.
package credentials

import (
	"crypto/rand"
	"math/big"
)

// Word lists for generating display names
var adjectives = []string{
	"happy", "sunny", "brave", "bright", "steady", "swift", "clever", "jolly",
	"mighty", "eager", "lucky", "bold", "cheerful", "daring", "focused", "gentle",
	"lively", "merry", "noble", "quick", "patient", "determined", "curious", "cosmic",
}

var nouns = []string{
	"dragon", "tiger", "eagle", "dolphin", "panda", "lion", "wolf", "bear",
	"fox", "hawk", "phoenix", "rocket", "wizard", "knight", "explorer", "ranger",
	"captain", "comet", "climber", "runner", "planner", "achiever", "gardener", "builder",
}

// GenerateDisplayName returns a random name in the format "adjective-noun"
func GenerateDisplayName() (string, error) {
	adjective, err := randomElement(adjectives)
	if err != nil {
		return "", err
	}

	noun, err := randomElement(nouns)
	if err != nil {
		return "", err
	}

	return adjective + "-" + noun, nil
}

// randomElement picks a random element from a string slice
func randomElement(slice []string) (string, error) {
	if len(slice) == 0 {
		return "", nil
	}

	num, err := rand.Int(rand.Reader, big.NewInt(int64(len(slice))))
	if err != nil {
		return "", err
	}

	return slice[num.Int64()], nil
}
