package credentials

import (
	"crypto/rand"
	"math/big"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Word lists for generating kid-friendly guest usernames
var adjectives = []string{
	"happy", "sunny", "brave", "bright", "cool", "swift", "clever", "jolly",
	"mighty", "super", "star", "wild", "funny", "lucky", "magic", "bouncy",
	"cheerful", "daring", "eager", "flying", "gentle", "hyper", "jazzy", "kindly",
	"lively", "merry", "noble", "perky", "quick", "royal", "snappy", "turbo",
	"zippy", "awesome", "bold", "cosmic", "dynamic", "epic", "fantastic", "groovy",
}

var nouns = []string{
	"dragon", "tiger", "eagle", "dolphin", "panda", "lion", "wolf", "bear",
	"fox", "hawk", "shark", "phoenix", "unicorn", "rocket", "ninja", "wizard",
	"knight", "pirate", "robot", "astronaut", "hero", "champion", "explorer", "ranger",
	"warrior", "captain", "genius", "comet", "thunder", "lightning", "tornado", "blizzard",
	"flame", "storm", "shadow", "spirit", "ghost", "monster", "alien", "racer",
}

// friendCodeAlphabet leaves out characters kids misread over a shoulder:
// 0/O, 1/I/L and vowels that could spell something unfortunate.
const friendCodeAlphabet = "23456789BCDFGHJKMNPQRSTVWXYZ"

const friendCodeLength = 6

// GenerateGuestUsername generates a random username in the format
// "adjective-noun".
func GenerateGuestUsername() (string, error) {
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

// GenerateFriendCode generates the short code friends type to add each other.
func GenerateFriendCode() (string, error) {
	return gonanoid.Generate(friendCodeAlphabet, friendCodeLength)
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
